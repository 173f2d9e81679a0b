package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
	"github.com/screenpass/movie-ticket-booking/internal/pricing"
	"github.com/screenpass/movie-ticket-booking/internal/queue"
	"github.com/screenpass/movie-ticket-booking/internal/repository"
)

// PaymentHandler processes booking payments and serves the receipt view.
type PaymentHandler struct {
	Service *booking.Service
	Views   *repository.BookingRepo
}

func NewPaymentHandler(svc *booking.Service, views *repository.BookingRepo) *PaymentHandler {
	return &PaymentHandler{Service: svc, Views: views}
}

type payReq struct {
	Amount        *float64 `json:"amount"`
	PaymentMethod string   `json:"paymentMethod"`
	CardNumber    string   `json:"cardNumber"`
	ExpiryDate    string   `json:"expiryDate"`
	CVV           string   `json:"cvv"`
}

type payData struct {
	Payment repository.PaymentReceipt `json:"payment"`
	Booking *repository.BookingDetail `json:"booking"`
}

// Pay charges the booking through the payment provider and confirms it. The
// declared amount must match the stored total exactly. On success a
// booking.confirmed event is published best-effort; a broker outage never
// fails the payment.
func (h *PaymentHandler) Pay(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	var req payReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Amount == nil {
		return fail(c, http.StatusBadRequest, "amount is required")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	userID := currentUserID(c)
	receipt, _, err := h.Service.Pay(ctx, userID, id,
		pricing.ParseAmount(*req.Amount), req.PaymentMethod, req.CardNumber, req.ExpiryDate)
	if err != nil {
		return renderError(c, err)
	}

	detail, err := h.Views.DetailForUser(ctx, id, userID)
	if err != nil {
		return renderError(c, err)
	}

	go publishConfirmed(detail, userID)

	return respond(c, http.StatusOK, "payment processed successfully", payData{
		Payment: repository.PaymentReceipt{
			PaymentReference: receipt.Reference,
			Amount:           pricing.Dollars(receipt.AmountCents),
			Status:           booking.PaymentStatusCompleted,
			PaidAt:           receipt.ProcessedAt,
		},
		Booking: detail,
	})
}

// Get returns the payment view; payment stays null while the booking is
// unpaid.
func (h *PaymentHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	detail, err := h.Views.PaymentForUser(ctx, id, currentUserID(c))
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", detail)
}

// publishConfirmed emits the booking.confirmed event. Runs detached from the
// request with its own deadline; the publisher logs failures.
func publishConfirmed(d *repository.BookingDetail, userID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	seats := make([]string, len(d.Seats))
	for i, s := range d.Seats {
		seats[i] = s.SeatNumber
	}
	_ = queue.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
		BookingID:        d.ID,
		BookingReference: d.BookingReference,
		UserID:           userID,
		ShowtimeID:       d.Showtime.ID,
		MovieTitle:       d.Movie.Title,
		TheaterName:      d.Theater.Name,
		ScreenNumber:     d.Showtime.ScreenNumber,
		StartsAt:         d.Showtime.ShowTime.UTC().Format(time.RFC3339),
		SeatNumbers:      seats,
		TotalAmountCents: pricing.ParseAmount(d.TotalAmount),
		ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
	})
}
