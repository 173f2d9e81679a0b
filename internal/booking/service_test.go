package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpass/movie-ticket-booking/internal/payment"
)

// memStore is an in-memory Store. Reserve holds the mutex across the
// conflict re-check and the insert, mirroring the serialization the SQL
// implementation gets from its seat row locks.
type memStore struct {
	mu        sync.Mutex
	showtimes map[uint64]*Showtime
	seats     map[uint64]Seat // seat id -> seat, all on the showtime's screen
	bookings  map[uint64]*Booking
	holds     map[uint64][]uint64 // booking id -> seat ids
	nextID    uint64
}

func newMemStore() *memStore {
	return &memStore{
		showtimes: make(map[uint64]*Showtime),
		seats:     make(map[uint64]Seat),
		bookings:  make(map[uint64]*Booking),
		holds:     make(map[uint64][]uint64),
		nextID:    1,
	}
}

func (m *memStore) ShowtimeByID(_ context.Context, id uint64) (*Showtime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.showtimes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *memStore) SeatsForShowtime(_ context.Context, _ *Showtime, seatIDs []uint64) ([]Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Seat
	for _, id := range seatIDs {
		if s, ok := m.seats[id]; ok && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

// heldLocked returns the seats among seatIDs held by an active booking on
// the showtime. Callers must hold m.mu.
func (m *memStore) heldLocked(showtimeID uint64, seatIDs []uint64) []Seat {
	want := make(map[uint64]bool, len(seatIDs))
	for _, id := range seatIDs {
		want[id] = true
	}
	var held []Seat
	for bid, b := range m.bookings {
		if b.ShowtimeID != showtimeID || !b.Active() {
			continue
		}
		for _, sid := range m.holds[bid] {
			if want[sid] {
				held = append(held, m.seats[sid])
			}
		}
	}
	return held
}

func (m *memStore) ActiveSeatHolders(_ context.Context, showtimeID uint64, seatIDs []uint64) ([]Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heldLocked(showtimeID, seatIDs), nil
}

func (m *memStore) ReferenceTaken(_ context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.Reference == ref {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Reserve(_ context.Context, b *Booking, seats []Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seatIDs := make([]uint64, len(seats))
	for i, s := range seats {
		seatIDs[i] = s.ID
	}
	if held := m.heldLocked(b.ShowtimeID, seatIDs); len(held) > 0 {
		numbers := make([]string, len(held))
		for i, s := range held {
			numbers[i] = s.SeatNumber
		}
		return &ConflictError{SeatNumbers: numbers}
	}

	b.ID = m.nextID
	m.nextID++
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.bookings[b.ID] = &cp
	m.holds[b.ID] = seatIDs
	return nil
}

func (m *memStore) BookingByID(_ context.Context, id uint64) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) CancelBooking(_ context.Context, bookingID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return ErrNotFound
	}
	b.Status = StatusCancelled
	return nil
}

func (m *memStore) ConfirmPayment(_ context.Context, bookingID uint64, paymentRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return ErrNotFound
	}
	switch b.Status {
	case StatusConfirmed:
		return Invalidf("this booking has already been paid for")
	case StatusCancelled:
		return Invalidf("cannot pay for a cancelled booking")
	}
	b.Status = StatusConfirmed
	b.PaymentStatus = PaymentStatusCompleted
	b.PaymentRef = &paymentRef
	return nil
}

// Fixture: one future showtime at $10.00 base with three seats, C3 premium
// at $15.00.
func fixture(now time.Time) *memStore {
	store := newMemStore()
	store.showtimes[1] = &Showtime{
		ID: 1, MovieID: 1, TheaterID: 1, ScreenNumber: 1,
		StartsAt: now.Add(48 * time.Hour), BasePriceCents: 1000,
		TotalSeats: 3, AvailableSeats: 3, IsActive: true,
	}
	premium := int64(1500)
	store.seats[1] = Seat{ID: 1, RowLabel: "A", SeatColumn: 1, SeatNumber: "A1", SeatType: "regular", IsActive: true}
	store.seats[2] = Seat{ID: 2, RowLabel: "A", SeatColumn: 2, SeatNumber: "A2", SeatType: "regular", IsActive: true}
	store.seats[3] = Seat{ID: 3, RowLabel: "C", SeatColumn: 3, SeatNumber: "C3", SeatType: "premium", PriceCents: &premium, IsActive: true}
	return store
}

func newTestService(store Store, now time.Time) *Service {
	return NewService(store, payment.NewMockGateway(0), WithClock(func() time.Time { return now }))
}

func TestCreatePricesSeats(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(fixture(now), now)

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1, 2, 3})
	require.NoError(t, err)

	// 10.00 + 10.00 + 15.00 -> subtotal 35.00, fee 3.50, tax 2.80.
	assert.Equal(t, int64(4130), b.TotalCents)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, PaymentStatusPending, b.PaymentStatus)
	assert.Regexp(t, `^BK-[0-9A-F]{6}$`, b.Reference)
	assert.NotZero(t, b.ID)
}

func TestCreateRejectsEmptySelection(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	var ve *ValidationError
	_, err := svc.Create(context.Background(), 10, 1, nil)
	require.ErrorAs(t, err, &ve)

	_, err = svc.Create(context.Background(), 10, 1, []uint64{0, 0})
	require.ErrorAs(t, err, &ve)
}

func TestCreateRejectsUnknownSeats(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	var ve *ValidationError
	_, err := svc.Create(context.Background(), 10, 1, []uint64{1, 99})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "invalid")
}

func TestCreateRejectsPastShowtime(t *testing.T) {
	now := time.Now().UTC()
	store := fixture(now)
	store.showtimes[1].StartsAt = now.Add(-time.Hour)
	svc := newTestService(store, now)

	var ve *ValidationError
	_, err := svc.Create(context.Background(), 10, 1, []uint64{1})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "past")
}

func TestCreateUnknownShowtime(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	_, err := svc.Create(context.Background(), 10, 99, []uint64{1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateConflictListsSeats(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	_, err := svc.Create(context.Background(), 10, 1, []uint64{1, 2})
	require.NoError(t, err)

	var ce *ConflictError
	_, err = svc.Create(context.Background(), 11, 1, []uint64{2, 3})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"A2"}, ce.SeatNumbers)
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), user, 1, []uint64{1})
			errs <- err
		}(uint64(100 + i))
	}
	wg.Wait()
	close(errs)

	wins, conflicts := 0, 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, []string{"A1"}, ce.SeatNumbers)
		conflicts++
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCancelReleasesSeats(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), 10, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Same seat, same showtime, different user: must succeed now.
	_, err = svc.Create(context.Background(), 11, 1, []uint64{1})
	assert.NoError(t, err)
}

func TestCancelGuards(t *testing.T) {
	now := time.Now().UTC()
	store := fixture(now)
	svc := newTestService(store, now)

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), 10, b.ID)
	require.NoError(t, err)

	var ve *ValidationError
	_, err = svc.Cancel(context.Background(), 10, b.ID)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "already cancelled")

	// A booking whose showtime has started can no longer be cancelled.
	b2, err := svc.Create(context.Background(), 10, 1, []uint64{2})
	require.NoError(t, err)
	store.mu.Lock()
	store.showtimes[1].StartsAt = now.Add(-time.Minute)
	store.mu.Unlock()
	_, err = svc.Cancel(context.Background(), 10, b2.ID)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "past")
}

func TestPayConfirmsBooking(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1, 2, 3})
	require.NoError(t, err)

	receipt, paid, err := svc.Pay(context.Background(), 10, b.ID, 4130, "", "4242424242424242", "12/27")
	require.NoError(t, err)
	assert.Regexp(t, `^MOCK-PAY-[0-9A-F]{6}$`, receipt.Reference)
	assert.Equal(t, "credit_card", receipt.Method) // default method
	assert.Equal(t, StatusConfirmed, paid.Status)
	assert.Equal(t, PaymentStatusCompleted, paid.PaymentStatus)
	require.NotNil(t, paid.PaymentRef)
	assert.Equal(t, receipt.Reference, *paid.PaymentRef)
}

func TestPayRejectsAmountMismatch(t *testing.T) {
	now := time.Now().UTC()
	store := fixture(now)
	svc := newTestService(store, now)

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1, 2, 3})
	require.NoError(t, err)

	var ve *ValidationError
	for _, cents := range []int64{4129, 4131} {
		_, _, err := svc.Pay(context.Background(), 10, b.ID, cents, "credit_card", "", "")
		require.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Reason, "41.30")
	}

	// The failed attempts must not have moved the booking.
	got, err := store.BookingByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestPayTwiceRejected(t *testing.T) {
	now := time.Now().UTC()
	store := fixture(now)
	svc := newTestService(store, now)

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1})
	require.NoError(t, err)

	_, first, err := svc.Pay(context.Background(), 10, b.ID, b.TotalCents, "credit_card", "", "")
	require.NoError(t, err)

	var ve *ValidationError
	_, _, err = svc.Pay(context.Background(), 10, b.ID, b.TotalCents, "credit_card", "", "")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "already been paid")

	got, err := store.BookingByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, got.Status)
	assert.Equal(t, first.PaymentRef, got.PaymentRef)
}

// chargeFunc adapts a function to payment.Provider.
type chargeFunc func(ctx context.Context, req payment.Request) (payment.Receipt, error)

func (f chargeFunc) Charge(ctx context.Context, req payment.Request) (payment.Receipt, error) {
	return f(ctx, req)
}

func TestPayRaceLoserSeesAlreadyPaid(t *testing.T) {
	now := time.Now().UTC()
	store := fixture(now)

	// The booking gets confirmed while this charge is in flight, which is
	// what the loser of two concurrent payments observes: its own status
	// check passed, but the store-level pending guard fires afterwards.
	provider := chargeFunc(func(_ context.Context, req payment.Request) (payment.Receipt, error) {
		require.NoError(t, store.ConfirmPayment(context.Background(), req.BookingID, "MOCK-PAY-111111"))
		return payment.Receipt{
			Reference:   "MOCK-PAY-222222",
			Method:      req.Method,
			AmountCents: req.AmountCents,
			ProcessedAt: time.Now().UTC(),
		}, nil
	})
	svc := NewService(store, provider, WithClock(func() time.Time { return now }))

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1})
	require.NoError(t, err)

	var ve *ValidationError
	_, _, err = svc.Pay(context.Background(), 10, b.ID, b.TotalCents, "credit_card", "", "")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "already been paid")

	// The winner's reference survives untouched.
	got, err := store.BookingByID(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaymentRef)
	assert.Equal(t, "MOCK-PAY-111111", *got.PaymentRef)
}

func TestPayCancelledRejected(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1})
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), 10, b.ID)
	require.NoError(t, err)

	var ve *ValidationError
	_, _, err = svc.Pay(context.Background(), 10, b.ID, b.TotalCents, "credit_card", "", "")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "cancelled")
}

func TestOwnershipIsolation(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1})
	require.NoError(t, err)

	_, err = svc.Owned(context.Background(), 11, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Cancel(context.Background(), 11, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = svc.Pay(context.Background(), 11, b.ID, b.TotalCents, "credit_card", "", "")
	assert.ErrorIs(t, err, ErrForbidden)

	// The owner still sees it.
	got, err := svc.Owned(context.Background(), 10, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestCreateDeduplicatesSeatIDs(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService(fixture(now), now)

	b, err := svc.Create(context.Background(), 10, 1, []uint64{1, 1, 1})
	require.NoError(t, err)
	// One seat, not three: 10.00 + 1.00 + 0.80.
	assert.Equal(t, int64(1180), b.TotalCents)
}

func TestCreateInactiveShowtimeHidden(t *testing.T) {
	now := time.Now().UTC()
	store := fixture(now)
	store.showtimes[1].IsActive = false
	svc := newTestService(store, now)

	_, err := svc.Create(context.Background(), 10, 1, []uint64{1})
	assert.ErrorIs(t, err, ErrNotFound)
}
