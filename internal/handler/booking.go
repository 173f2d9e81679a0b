package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
	"github.com/screenpass/movie-ticket-booking/internal/repository"
)

// BookingHandler drives the reservation lifecycle over HTTP. Transitions go
// through the booking service; response bodies come from the joined read
// models in BookingRepo.
type BookingHandler struct {
	Service *booking.Service
	Views   *repository.BookingRepo
}

func NewBookingHandler(svc *booking.Service, views *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Service: svc, Views: views}
}

type createBookingReq struct {
	ShowtimeID uint64   `json:"showtimeId"`
	SeatIDs    []uint64 `json:"seatIds"`
}

// Create reserves seats and returns the new booking in full detail.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	userID := currentUserID(c)
	b, err := h.Service.Create(ctx, userID, req.ShowtimeID, req.SeatIDs)
	if err != nil {
		return renderError(c, err)
	}
	detail, err := h.Views.DetailForUser(ctx, b.ID, userID)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusCreated, "booking created successfully", detail)
}

// List returns all of the caller's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	list, err := h.Views.ListForUser(ctx, currentUserID(c))
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Get returns one of the caller's bookings in full detail.
func (h *BookingHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	detail, err := h.Views.DetailForUser(ctx, id, currentUserID(c))
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", detail)
}

// Cancel voids a booking before its showtime; the seats come free again
// immediately.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	userID := currentUserID(c)
	if _, err := h.Service.Cancel(ctx, userID, id); err != nil {
		return renderError(c, err)
	}
	detail, err := h.Views.DetailForUser(ctx, id, userID)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "booking cancelled successfully", detail)
}
