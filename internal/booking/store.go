package booking

import "context"

// Store is the persistence capability the booking core depends on. The SQL
// implementation lives in internal/repository; tests inject an in-memory
// fake. Passing the store in explicitly (rather than a package-level DB
// client) keeps the core free of hidden global state.
type Store interface {
	// ShowtimeByID returns the showtime or ErrNotFound.
	ShowtimeByID(ctx context.Context, id uint64) (*Showtime, error)

	// SeatsForShowtime resolves seat ids to active seats belonging to the
	// showtime's (theater, screen). Unknown or foreign ids are simply
	// absent from the result; the caller detects them by count.
	SeatsForShowtime(ctx context.Context, st *Showtime, seatIDs []uint64) ([]Seat, error)

	// ActiveSeatHolders is the conflict checker: it returns the subset of
	// the given seats that already have a booking_seats row whose parent
	// booking is pending or confirmed for this showtime. Read-only; the
	// authoritative check happens again inside Reserve.
	ActiveSeatHolders(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]Seat, error)

	// ReferenceTaken reports whether a booking reference is already in use.
	ReferenceTaken(ctx context.Context, ref string) (bool, error)

	// Reserve atomically re-verifies seat availability and persists the
	// booking plus one booking_seats row per seat. When a concurrent
	// request won the race it returns a *ConflictError and persists
	// nothing. On success the booking's ID and timestamps are populated.
	Reserve(ctx context.Context, b *Booking, seats []Seat) error

	// BookingByID returns the booking or ErrNotFound. Ownership is checked
	// by the service, not here.
	BookingByID(ctx context.Context, id uint64) (*Booking, error)

	// CancelBooking flips the booking to cancelled. Seats are released
	// implicitly: conflict queries filter by active parent status, so no
	// booking_seats rows are touched.
	CancelBooking(ctx context.Context, bookingID uint64) error

	// ConfirmPayment transitions the booking to confirmed/completed and
	// stores the payment reference. This is the only writer that moves a
	// booking out of pending into confirmed.
	ConfirmPayment(ctx context.Context, bookingID uint64, paymentRef string) error
}
