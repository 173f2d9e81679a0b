package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
)

// Every response uses the same envelope: {success, message?, data?}. Failures
// never carry data; successes may carry either or both of message and data.

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// respond writes a success envelope.
func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

// fail writes a failure envelope.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message})
}

// conflictResponse is the 409 payload listing the seats that are already
// taken, so clients can highlight them in the picker.
type conflictResponse struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	UnavailableSeats []string `json:"unavailableSeats"`
}

// renderError maps domain errors onto the envelope. Ownership violations
// render as 404 on purpose: a caller probing other users' booking ids learns
// nothing about which ids exist.
func renderError(c echo.Context, err error) error {
	var ve *booking.ValidationError
	if errors.As(err, &ve) {
		return fail(c, http.StatusBadRequest, ve.Reason)
	}
	var ce *booking.ConflictError
	if errors.As(err, &ce) {
		return c.JSON(http.StatusConflict, conflictResponse{
			Success:          false,
			Message:          ce.Error(),
			UnavailableSeats: ce.SeatNumbers,
		})
	}
	switch {
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, booking.ErrForbidden):
		return fail(c, http.StatusNotFound, "not found")
	case errors.Is(err, booking.ErrUnavailable):
		return fail(c, http.StatusInternalServerError, "service temporarily unavailable")
	default:
		c.Logger().Error(err)
		return fail(c, http.StatusInternalServerError, "internal server error")
	}
}
