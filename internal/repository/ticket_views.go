package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
)

// A ticket is a booking that has been confirmed and paid for. Tickets reuse
// the joined booking view and add presentation fields: the QR payload the
// theater scans at the door and the upcoming/past split with a countdown.

// TimeUntilShow is the countdown block on an upcoming ticket.
type TimeUntilShow struct {
	Days              int   `json:"days"`
	Hours             int   `json:"hours"`
	TotalMilliseconds int64 `json:"totalMilliseconds"`
}

// TicketDetail is a confirmed, paid booking rendered as a ticket.
type TicketDetail struct {
	*BookingDetail
	QRCode        string         `json:"qrCode"`
	IsUpcoming    bool           `json:"isUpcoming"`
	IsPast        bool           `json:"isPast"`
	TimeUntilShow *TimeUntilShow `json:"timeUntilShow,omitempty"`
}

// TicketsForUser returns all of the user's tickets, newest booking first.
func (r *BookingRepo) TicketsForUser(ctx context.Context, userID uint64, now time.Time) ([]*TicketDetail, error) {
	q := bookingDetailQuery + `
	    WHERE b.user_id = ? AND b.status = 'confirmed' AND b.payment_status = 'completed'
	    ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]*BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachSeats(ctx, details); err != nil {
		return nil, err
	}

	tickets := make([]*TicketDetail, len(details))
	for i, d := range details {
		tickets[i] = ticketFrom(d, now)
	}
	return tickets, nil
}

// TicketForUser returns a single ticket. Bookings that are unpaid,
// cancelled, missing, or owned by someone else all yield booking.ErrNotFound.
func (r *BookingRepo) TicketForUser(ctx context.Context, bookingID, userID uint64, now time.Time) (*TicketDetail, error) {
	q := bookingDetailQuery + `
	    WHERE b.id = ? AND b.user_id = ? AND b.status = 'confirmed' AND b.payment_status = 'completed'`
	d, err := scanBookingDetail(func(dest ...any) error {
		return r.db.QueryRowContext(ctx, q, bookingID, userID).Scan(dest...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachSeats(ctx, []*BookingDetail{d}); err != nil {
		return nil, err
	}
	return ticketFrom(d, now), nil
}

// ticketFrom decorates a booking detail with ticket presentation fields.
// The QR payload is the booking reference; door scanners look bookings up
// by reference, so no extra token is needed.
func ticketFrom(d *BookingDetail, now time.Time) *TicketDetail {
	t := &TicketDetail{
		BookingDetail: d,
		QRCode:        d.BookingReference,
		IsUpcoming:    d.Showtime.ShowTime.After(now),
		IsPast:        !d.Showtime.ShowTime.After(now),
	}
	if t.IsUpcoming {
		until := d.Showtime.ShowTime.Sub(now)
		t.TimeUntilShow = &TimeUntilShow{
			Days:              int(until / (24 * time.Hour)),
			Hours:             int(until % (24 * time.Hour) / time.Hour),
			TotalMilliseconds: until.Milliseconds(),
		}
	}
	return t
}
