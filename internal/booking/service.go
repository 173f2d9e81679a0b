package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/screenpass/movie-ticket-booking/internal/payment"
	"github.com/screenpass/movie-ticket-booking/internal/pricing"
	"github.com/screenpass/movie-ticket-booking/internal/refgen"
)

// Service is the booking ledger. It owns the createBooking / cancelBooking /
// pay transitions and delegates durability to the injected Store and charges
// to the injected payment Provider.
type Service struct {
	store    Store
	provider payment.Provider
	refs     *refgen.Generator
	now      func() time.Time
}

// Option tweaks a Service; used by tests to pin the clock.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the ledger with its store and payment provider.
func NewService(store Store, provider payment.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		provider: provider,
		refs:     refgen.New("BK"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create reserves the given seats for the user on the showtime. The
// pre-flight availability check here is a fast filter only; the authoritative
// re-check runs inside Store.Reserve under the seat row locks, so two
// concurrent calls for overlapping seats can never both succeed.
func (s *Service) Create(ctx context.Context, userID, showtimeID uint64, seatIDs []uint64) (*Booking, error) {
	ids := dedupeIDs(seatIDs)
	if len(ids) == 0 {
		return nil, Invalidf("showtimeId and seatIds (non-empty array) are required")
	}

	st, err := s.store.ShowtimeByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if !st.IsActive {
		return nil, ErrNotFound
	}
	if !st.StartsAt.After(s.now()) {
		return nil, Invalidf("cannot book seats for past showtimes")
	}

	seats, err := s.store.SeatsForShowtime(ctx, st, ids)
	if err != nil {
		return nil, err
	}
	if len(seats) != len(ids) {
		return nil, Invalidf("some seats are invalid or do not exist")
	}

	taken, err := s.store.ActiveSeatHolders(ctx, st.ID, ids)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, conflictOf(taken)
	}

	prices := make([]int64, len(seats))
	for i, seat := range seats {
		prices[i] = seat.EffectivePriceCents(st.BasePriceCents)
	}
	quote := pricing.Calculate(prices)

	ref, err := s.refs.Next(ctx, s.store.ReferenceTaken)
	if err != nil {
		if errors.Is(err, refgen.ErrExhausted) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}

	b := &Booking{
		UserID:        userID,
		ShowtimeID:    st.ID,
		Reference:     ref,
		TotalCents:    quote.TotalCents,
		Status:        StatusPending,
		PaymentStatus: PaymentStatusPending,
	}
	if err := s.store.Reserve(ctx, b, seats); err != nil {
		return nil, err
	}
	return b, nil
}

// Owned loads a booking and enforces ownership. A booking belonging to a
// different user yields ErrForbidden, which the HTTP layer renders as 404 so
// callers cannot probe for other users' booking ids.
func (s *Service) Owned(ctx context.Context, userID, bookingID uint64) (*Booking, error) {
	b, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	return b, nil
}

// Cancel voids a pending or confirmed booking before its showtime starts.
// Seats come free again purely through the active-status filter on conflict
// queries; nothing else needs to be written.
func (s *Service) Cancel(ctx context.Context, userID, bookingID uint64) (*Booking, error) {
	b, err := s.Owned(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == StatusCancelled {
		return nil, Invalidf("booking is already cancelled")
	}

	st, err := s.store.ShowtimeByID(ctx, b.ShowtimeID)
	if err != nil {
		return nil, err
	}
	if !st.StartsAt.After(s.now()) {
		return nil, Invalidf("cannot cancel bookings for past showtimes")
	}

	if err := s.store.CancelBooking(ctx, b.ID); err != nil {
		return nil, err
	}
	b.Status = StatusCancelled
	return b, nil
}

// Pay charges the booking through the payment provider and, on success,
// transitions it to confirmed/completed. The declared amount must equal the
// stored total exactly; the server-computed figure is the contract and
// clients are expected to echo it back.
func (s *Service) Pay(ctx context.Context, userID, bookingID uint64, amountCents int64, method, cardNumber, expiryDate string) (payment.Receipt, *Booking, error) {
	b, err := s.Owned(ctx, userID, bookingID)
	if err != nil {
		return payment.Receipt{}, nil, err
	}
	switch b.Status {
	case StatusConfirmed:
		return payment.Receipt{}, nil, Invalidf("this booking has already been paid for")
	case StatusCancelled:
		return payment.Receipt{}, nil, Invalidf("cannot pay for a cancelled booking")
	}
	if amountCents != b.TotalCents {
		return payment.Receipt{}, nil, Invalidf("amount mismatch: expected %.2f, received %.2f",
			pricing.Dollars(b.TotalCents), pricing.Dollars(amountCents))
	}
	if method == "" {
		method = "credit_card"
	}

	receipt, err := s.provider.Charge(ctx, payment.Request{
		BookingID:        b.ID,
		BookingReference: b.Reference,
		UserID:           userID,
		AmountCents:      amountCents,
		Method:           method,
		CardNumber:       cardNumber,
		ExpiryDate:       expiryDate,
	})
	if err != nil {
		return payment.Receipt{}, nil, fmt.Errorf("%w: payment gateway: %v", ErrUnavailable, err)
	}

	if err := s.store.ConfirmPayment(ctx, b.ID, receipt.Reference); err != nil {
		return payment.Receipt{}, nil, err
	}
	b.Status = StatusConfirmed
	b.PaymentStatus = PaymentStatusCompleted
	b.PaymentRef = &receipt.Reference
	return receipt, b, nil
}

// dedupeIDs drops zeros and duplicates while preserving order.
func dedupeIDs(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// conflictOf builds a ConflictError from the seats that are already held.
func conflictOf(seats []Seat) *ConflictError {
	numbers := make([]string, len(seats))
	for i, s := range seats {
		numbers[i] = s.SeatNumber
	}
	return &ConflictError{SeatNumbers: numbers}
}
