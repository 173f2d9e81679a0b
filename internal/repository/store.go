// Package repository is the data access layer. It owns every SQL statement
// in the service; handlers and the booking core never see database/sql rows
// directly. All timestamps are stored and compared in UTC.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
)

// Store implements booking.Store on top of MySQL. It is the authoritative
// seat-inventory ledger: Reserve is the single place where the no-double-
// booking invariant is enforced.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const seatColumns = `se.id, se.row_label, se.seat_column, se.seat_number, se.seat_type, se.price_cents, se.is_aisle, se.is_active`

// ShowtimeByID loads a showtime row. Returns booking.ErrNotFound when the
// id does not exist.
func (s *Store) ShowtimeByID(ctx context.Context, id uint64) (*booking.Showtime, error) {
	const q = `SELECT id, movie_id, theater_id, screen_number, starts_at, base_price_cents,
	                  total_seats, available_seats, is_active
	           FROM showtimes WHERE id = ?`
	var st booking.Showtime
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&st.ID, &st.MovieID, &st.TheaterID, &st.ScreenNumber, &st.StartsAt,
		&st.BasePriceCents, &st.TotalSeats, &st.AvailableSeats, &st.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SeatsForShowtime resolves seat ids restricted to the showtime's theater
// and screen. Ids that do not match (unknown, inactive, or belonging to a
// different screen) are silently dropped; the service compares counts.
func (s *Store) SeatsForShowtime(ctx context.Context, st *booking.Showtime, seatIDs []uint64) ([]booking.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	q := `SELECT ` + seatColumns + `
	      FROM seats se
	      WHERE se.id IN (` + placeholders(len(seatIDs)) + `)
	        AND se.theater_id = ? AND se.screen_number = ? AND se.is_active = 1
	      ORDER BY se.row_label, se.seat_column`
	args := idArgs(seatIDs)
	args = append(args, st.TheaterID, st.ScreenNumber)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeats(rows)
}

// ActiveSeatHolders returns the seats among seatIDs that are already tied to
// a pending or confirmed booking for the showtime. The status filter is the
// invariant that makes cancelled bookings release their seats; it must never
// be dropped from this query.
func (s *Store) ActiveSeatHolders(ctx context.Context, showtimeID uint64, seatIDs []uint64) ([]booking.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, activeHoldersQuery(len(seatIDs)), holderArgs(showtimeID, seatIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeats(rows)
}

// ReferenceTaken reports whether a booking reference already exists.
func (s *Store) ReferenceTaken(ctx context.Context, ref string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM bookings WHERE reference = ?)`
	var taken bool
	if err := s.db.QueryRowContext(ctx, q, ref).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// Reserve is the atomic reservation step. Inside one transaction it:
//
//  1. locks the seat rows with SELECT ... FOR UPDATE in a fixed order, which
//     serializes concurrent reservations of overlapping seat sets across
//     processes without any in-memory locking;
//  2. re-runs the active-holder check under those locks — this, not the
//     pre-flight filter, is what guarantees at most one active booking per
//     (showtime, seat);
//  3. inserts the booking and its booking_seats rows and decrements the
//     advisory availability counter.
//
// Any conflict aborts the whole transaction; nothing is partially persisted.
func (s *Store) Reserve(ctx context.Context, b *booking.Booking, seats []booking.Seat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	seatIDs := make([]uint64, len(seats))
	for i, seat := range seats {
		seatIDs[i] = seat.ID
	}

	// Lock parent seat rows. ORDER BY id keeps lock acquisition order
	// deterministic so overlapping reservations cannot deadlock.
	lockQ := `SELECT id FROM seats WHERE id IN (` + placeholders(len(seatIDs)) + `) ORDER BY id FOR UPDATE`
	lockRows, err := tx.QueryContext(ctx, lockQ, idArgs(seatIDs)...)
	if err != nil {
		return err
	}
	for lockRows.Next() {
		var id uint64
		if err := lockRows.Scan(&id); err != nil {
			lockRows.Close()
			return err
		}
	}
	if err := lockRows.Close(); err != nil {
		return err
	}

	// Authoritative conflict re-check, now serialized by the seat locks.
	rows, err := tx.QueryContext(ctx, activeHoldersQuery(len(seatIDs)), holderArgs(b.ShowtimeID, seatIDs)...)
	if err != nil {
		return err
	}
	held, err := scanSeats(rows)
	rows.Close()
	if err != nil {
		return err
	}
	if len(held) > 0 {
		numbers := make([]string, len(held))
		for i, seat := range held {
			numbers[i] = seat.SeatNumber
		}
		return &booking.ConflictError{SeatNumbers: numbers}
	}

	const insQ = `INSERT INTO bookings (user_id, showtime_id, reference, total_cents, status, payment_status)
	              VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, insQ, b.UserID, b.ShowtimeID, b.Reference, b.TotalCents, b.Status, b.PaymentStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	seatQ := `INSERT INTO booking_seats (booking_id, seat_id, status) VALUES `
	args := make([]any, 0, len(seats)*3)
	for i, seat := range seats {
		if i > 0 {
			seatQ += ","
		}
		seatQ += "(?, ?, ?)"
		args = append(args, b.ID, seat.ID, "confirmed")
	}
	if _, err := tx.ExecContext(ctx, seatQ, args...); err != nil {
		return err
	}

	// Advisory counter only; conflict detection never reads it.
	const counterQ = `UPDATE showtimes SET available_seats = available_seats - LEAST(available_seats, ?) WHERE id = ?`
	if _, err := tx.ExecContext(ctx, counterQ, len(seats), b.ShowtimeID); err != nil {
		return err
	}

	const selQ = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, selQ, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// BookingByID loads a booking row or booking.ErrNotFound.
func (s *Store) BookingByID(ctx context.Context, id uint64) (*booking.Booking, error) {
	const q = `SELECT id, user_id, showtime_id, reference, total_cents, status, payment_status,
	                  payment_ref, created_at, updated_at
	           FROM bookings WHERE id = ?`
	var b booking.Booking
	var payRef sql.NullString
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.ShowtimeID, &b.Reference, &b.TotalCents,
		&b.Status, &b.PaymentStatus, &payRef, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if payRef.Valid {
		ref := payRef.String
		b.PaymentRef = &ref
	}
	return &b, nil
}

// CancelBooking flips a booking to cancelled and restores the advisory
// availability counter. The booking_seats rows are left untouched: the
// active-status filter on every conflict query is what frees the seats.
func (s *Store) CancelBooking(ctx context.Context, bookingID uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var showtimeID uint64
	var seatCount int
	const infoQ = `SELECT b.showtime_id, COUNT(bs.id)
	               FROM bookings b
	               LEFT JOIN booking_seats bs ON bs.booking_id = b.id
	               WHERE b.id = ?
	               GROUP BY b.showtime_id`
	if err := tx.QueryRowContext(ctx, infoQ, bookingID).Scan(&showtimeID, &seatCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrNotFound
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = 'cancelled' WHERE id = ?`, bookingID); err != nil {
		return err
	}
	const counterQ = `UPDATE showtimes SET available_seats = LEAST(total_seats, available_seats + ?) WHERE id = ?`
	if _, err := tx.ExecContext(ctx, counterQ, seatCount, showtimeID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ConfirmPayment records the mock gateway result: status confirmed, payment
// completed, reference stored. Guarded on status = 'pending' so a racing
// duplicate confirmation cannot overwrite a settled booking.
func (s *Store) ConfirmPayment(ctx context.Context, bookingID uint64, paymentRef string) error {
	const q = `UPDATE bookings
	           SET status = 'confirmed', payment_status = 'completed', payment_ref = ?
	           WHERE id = ? AND status = 'pending'`
	res, err := s.db.ExecContext(ctx, q, paymentRef, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// A racing confirmation or cancellation got there first; report
		// which so the caller sees the same answer it would have gotten
		// from the pre-flight status check.
		var status string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, bookingID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return booking.ErrNotFound
		}
		if err != nil {
			return err
		}
		switch status {
		case "confirmed":
			return booking.Invalidf("this booking has already been paid for")
		case "cancelled":
			return booking.Invalidf("cannot pay for a cancelled booking")
		}
		return fmt.Errorf("confirm payment: booking %d not pending", bookingID)
	}
	return nil
}

// activeHoldersQuery builds the conflict-checker query for n seat ids.
func activeHoldersQuery(n int) string {
	return `SELECT ` + seatColumns + `
	        FROM booking_seats bs
	        JOIN bookings b ON b.id = bs.booking_id
	        JOIN seats se ON se.id = bs.seat_id
	        WHERE b.showtime_id = ?
	          AND bs.seat_id IN (` + placeholders(n) + `)
	          AND b.status IN ('pending','confirmed')`
}

func holderArgs(showtimeID uint64, seatIDs []uint64) []any {
	args := make([]any, 0, len(seatIDs)+1)
	args = append(args, showtimeID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	return args
}

// scanSeats drains seat rows selected with seatColumns.
func scanSeats(rows *sql.Rows) ([]booking.Seat, error) {
	var seats []booking.Seat
	for rows.Next() {
		var seat booking.Seat
		var price sql.NullInt64
		if err := rows.Scan(&seat.ID, &seat.RowLabel, &seat.SeatColumn, &seat.SeatNumber,
			&seat.SeatType, &price, &seat.IsAisle, &seat.IsActive); err != nil {
			return nil, err
		}
		if price.Valid {
			p := price.Int64
			seat.PriceCents = &p
		}
		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// idArgs converts ids to the []any form ExecContext expects.
func idArgs(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
