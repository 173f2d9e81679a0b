// Package queue defines the messages exchanged over RabbitMQ and the
// background consumer that processes them.
package queue

// BookingConfirmedEvent is published after a booking is paid and confirmed.
// It carries enough context for downstream consumers (notifications,
// analytics, the audit log) without a read back to the primary database.
type BookingConfirmedEvent struct {
	BookingID        uint64   `json:"booking_id"`
	BookingReference string   `json:"booking_reference"`
	UserID           uint64   `json:"user_id"`
	ShowtimeID       uint64   `json:"showtime_id"`
	MovieTitle       string   `json:"movie_title"`
	TheaterName      string   `json:"theater_name"`
	ScreenNumber     uint32   `json:"screen_number"`
	StartsAt         string   `json:"starts_at"`
	SeatNumbers      []string `json:"seats"`
	TotalAmountCents int64    `json:"total_amount_cents"`
	ConfirmedAt      string   `json:"confirmed_at"`
}
