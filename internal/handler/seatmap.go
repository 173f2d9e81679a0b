package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/repository"
)

// SeatMapHandler serves the seat picker for a showtime plus the advisory
// pre-selection availability check.
type SeatMapHandler struct {
	SeatMaps *repository.SeatMapRepo
	now      func() time.Time
}

func NewSeatMapHandler(seatMaps *repository.SeatMapRepo) *SeatMapHandler {
	return &SeatMapHandler{SeatMaps: seatMaps, now: func() time.Time { return time.Now().UTC() }}
}

// ForShowtime returns every seat on the showtime's screen with its live
// held/free status. Past showtimes answer 400.
func (h *SeatMapHandler) ForShowtime(c echo.Context) error {
	showtimeID, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid showtime id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	sm, err := h.SeatMaps.ForShowtime(ctx, showtimeID)
	if err != nil {
		return renderError(c, err)
	}
	if !sm.ShowTime.After(h.now()) {
		return fail(c, http.StatusBadRequest, "cannot view seats for past showtimes")
	}
	return respond(c, http.StatusOK, "", sm)
}

type checkSeatsReq struct {
	SeatIDs []uint64 `json:"seatIds"`
}

type checkSeatsData struct {
	Available bool `json:"available"`
}

// Check reports whether the selected seats are currently free. The answer is
// advisory: the authoritative check runs inside the booking transaction, so
// a 200 here can still turn into a 409 at booking time.
func (h *SeatMapHandler) Check(c echo.Context) error {
	showtimeID, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid showtime id")
	}
	var req checkSeatsReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if len(req.SeatIDs) == 0 {
		return fail(c, http.StatusBadRequest, "seatIds (non-empty array) is required")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	taken, err := h.SeatMaps.Unavailable(ctx, showtimeID, req.SeatIDs)
	if err != nil {
		return renderError(c, err)
	}
	if len(taken) > 0 {
		return c.JSON(http.StatusConflict, conflictResponse{
			Success:          false,
			Message:          "some of the selected seats are no longer available",
			UnavailableSeats: taken,
		})
	}
	return respond(c, http.StatusOK, "all selected seats are available", checkSeatsData{Available: true})
}
