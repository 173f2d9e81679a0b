package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
	"github.com/screenpass/movie-ticket-booking/internal/pricing"
)

// SeatMapRepo builds the seat picker view: every seat on the showtime's
// screen with its live held/free status. "Booked" here means held by an
// active (pending or confirmed) booking; cancelled bookings drop out of the
// subquery and their seats show as free again with no extra bookkeeping.
type SeatMapRepo struct {
	db *sql.DB
}

// NewSeatMapRepo returns a SeatMapRepo bound to the given database.
func NewSeatMapRepo(db *sql.DB) *SeatMapRepo { return &SeatMapRepo{db: db} }

// SeatStatus is one seat in the picker.
type SeatStatus struct {
	ID         uint64  `json:"id"`
	SeatNumber string  `json:"seatNumber"`
	RowName    string  `json:"rowName"`
	SeatColumn uint32  `json:"seatColumn"`
	SeatType   string  `json:"seatType"`
	Price      float64 `json:"price"`
	IsAisle    bool    `json:"isAisle"`
	IsBooked   bool    `json:"isBooked"`
}

// SeatMap is the full picker payload for one showtime.
type SeatMap struct {
	ShowtimeID     uint64                  `json:"showtimeId"`
	ShowTime       time.Time               `json:"showTime"`
	ScreenNumber   uint32                  `json:"screenNumber"`
	MovieTitle     string                  `json:"movieTitle"`
	TheaterName    string                  `json:"theaterName"`
	Rows           []string                `json:"rows"`
	SeatsByRow     map[string][]SeatStatus `json:"seatsByRow"`
	TotalSeats     int                     `json:"totalSeats"`
	AvailableSeats int                     `json:"availableSeats"`
	BookedSeats    int                     `json:"bookedSeats"`
}

// ForShowtime assembles the seat map for a showtime, or booking.ErrNotFound
// when the showtime is missing or inactive.
func (r *SeatMapRepo) ForShowtime(ctx context.Context, showtimeID uint64) (*SeatMap, error) {
	const headQ = `SELECT s.id, s.starts_at, s.screen_number, s.theater_id, s.base_price_cents,
	                      m.title, t.name
	               FROM showtimes s
	               JOIN movies m ON m.id = s.movie_id
	               JOIN theaters t ON t.id = s.theater_id
	               WHERE s.id = ? AND s.is_active = 1`
	sm := &SeatMap{SeatsByRow: make(map[string][]SeatStatus)}
	var theaterID uint64
	var baseCents int64
	err := r.db.QueryRowContext(ctx, headQ, showtimeID).Scan(
		&sm.ShowtimeID, &sm.ShowTime, &sm.ScreenNumber, &theaterID, &baseCents,
		&sm.MovieTitle, &sm.TheaterName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	const seatQ = `SELECT se.id, se.seat_number, se.row_label, se.seat_column, se.seat_type,
	                      se.price_cents, se.is_aisle,
	                      EXISTS(
	                          SELECT 1 FROM booking_seats bs
	                          JOIN bookings b ON b.id = bs.booking_id
	                          WHERE bs.seat_id = se.id
	                            AND b.showtime_id = ?
	                            AND b.status IN ('pending', 'confirmed')
	                      ) AS is_booked
	               FROM seats se
	               WHERE se.theater_id = ? AND se.screen_number = ? AND se.is_active = 1
	               ORDER BY se.row_label, se.seat_column`
	rows, err := r.db.QueryContext(ctx, seatQ, showtimeID, theaterID, sm.ScreenNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s SeatStatus
		var override sql.NullInt64
		if err := rows.Scan(&s.ID, &s.SeatNumber, &s.RowName, &s.SeatColumn, &s.SeatType,
			&override, &s.IsAisle, &s.IsBooked); err != nil {
			return nil, err
		}
		cents := baseCents
		if override.Valid {
			cents = override.Int64
		}
		s.Price = pricing.Dollars(cents)
		sm.SeatsByRow[s.RowName] = append(sm.SeatsByRow[s.RowName], s)
		sm.TotalSeats++
		if s.IsBooked {
			sm.BookedSeats++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sm.AvailableSeats = sm.TotalSeats - sm.BookedSeats
	sm.Rows = make([]string, 0, len(sm.SeatsByRow))
	for row := range sm.SeatsByRow {
		sm.Rows = append(sm.Rows, row)
	}
	sort.Strings(sm.Rows)
	return sm, nil
}

// Unavailable returns the seat numbers among seatIDs that are currently held
// by an active booking on the showtime. Used by the pre-selection
// availability check; the answer is advisory and may be stale by the time
// the client books.
func (r *SeatMapRepo) Unavailable(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]string, error) {
	if len(seatIDs) == 0 {
		return []string{}, nil
	}
	marks := make([]string, len(seatIDs))
	args := make([]any, 0, len(seatIDs)+1)
	args = append(args, showtimeID)
	for i, id := range seatIDs {
		marks[i] = "?"
		args = append(args, id)
	}
	q := `SELECT DISTINCT se.seat_number
	      FROM booking_seats bs
	      JOIN bookings b ON b.id = bs.booking_id
	      JOIN seats se ON se.id = bs.seat_id
	      WHERE b.showtime_id = ? AND b.status IN ('pending', 'confirmed')
	        AND bs.seat_id IN (` + strings.Join(marks, ",") + `)
	      ORDER BY se.seat_number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	numbers := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}
