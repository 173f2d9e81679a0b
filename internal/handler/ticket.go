package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/screenpass/movie-ticket-booking/internal/repository"
)

// TicketHandler serves paid bookings as tickets, including the QR payload
// the theater scans at the door.
type TicketHandler struct {
	Views *repository.BookingRepo
	now   func() time.Time
}

func NewTicketHandler(views *repository.BookingRepo) *TicketHandler {
	return &TicketHandler{Views: views, now: func() time.Time { return time.Now().UTC() }}
}

type ticketListData struct {
	Upcoming []*repository.TicketDetail `json:"upcoming"`
	Past     []*repository.TicketDetail `json:"past"`
}

// List returns the caller's tickets split into upcoming and past shows.
func (h *TicketHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	tickets, err := h.Views.TicketsForUser(ctx, currentUserID(c), h.now())
	if err != nil {
		return renderError(c, err)
	}
	data := ticketListData{
		Upcoming: make([]*repository.TicketDetail, 0),
		Past:     make([]*repository.TicketDetail, 0),
	}
	for _, t := range tickets {
		if t.IsUpcoming {
			data.Upcoming = append(data.Upcoming, t)
		} else {
			data.Past = append(data.Past, t)
		}
	}
	return respond(c, http.StatusOK, "", data)
}

// Get returns one ticket; unpaid or foreign bookings answer 404.
func (h *TicketHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "bookingId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Views.TicketForUser(ctx, id, currentUserID(c), h.now())
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", t)
}

// QR renders the ticket's QR payload as a PNG for wallet screenshots and
// print-at-home tickets.
func (h *TicketHandler) QR(c echo.Context) error {
	id, ok := pathID(c, "bookingId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Views.TicketForUser(ctx, id, currentUserID(c), h.now())
	if err != nil {
		return renderError(c, err)
	}
	png, err := qrcode.Encode(t.QRCode, qrcode.Medium, 256)
	if err != nil {
		return renderError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
