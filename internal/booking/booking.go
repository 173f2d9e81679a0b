// Package booking implements the reservation core: converting a seat
// selection into a durable, non-conflicting, priced booking and driving that
// booking through its pending -> confirmed/cancelled lifecycle. Persistence
// is reached only through the Store interface so the same logic runs against
// MySQL in production and an in-memory fake in tests.
package booking

import "time"

// Booking lifecycle states. confirmed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Payment states tracked on the booking row.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// ActiveStatuses are the booking states that occupy seats. Every
// availability query must filter booking_seats by parent status in this set;
// that filter is what makes cancellation release seats without an explicit
// release step.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// Showtime is the scheduled screening a booking reserves seats for. The
// booking core reads showtimes but never mutates them, apart from the
// advisory availability counter maintained by the store.
type Showtime struct {
	ID             uint64
	MovieID        uint64
	TheaterID      uint64
	ScreenNumber   uint32
	StartsAt       time.Time
	BasePriceCents int64
	TotalSeats     uint32
	AvailableSeats uint32 // advisory only, never used for conflict decisions
	IsActive       bool
}

// Seat is a physical seating position scoped to (theater, screen).
// PriceCents overrides the showtime base price when set.
type Seat struct {
	ID          uint64
	RowLabel    string
	SeatColumn  uint32
	SeatNumber  string // human label, e.g. "A7"
	SeatType    string // regular | premium
	PriceCents  *int64
	IsAisle     bool
	IsActive    bool
}

// EffectivePriceCents resolves the seat's price against the showtime base.
func (s Seat) EffectivePriceCents(basePriceCents int64) int64 {
	if s.PriceCents != nil {
		return *s.PriceCents
	}
	return basePriceCents
}

// Booking is the reservation record. TotalCents is fixed at creation time
// and never recomputed; payment must present the exact same figure.
type Booking struct {
	ID            uint64
	UserID        uint64
	ShowtimeID    uint64
	Reference     string
	TotalCents    int64
	Status        string
	PaymentStatus string
	PaymentRef    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Active reports whether the booking currently occupies its seats.
func (b *Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}
