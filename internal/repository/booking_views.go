package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
	"github.com/screenpass/movie-ticket-booking/internal/pricing"
)

// BookingRepo assembles the joined read models returned to clients:
// booking details with showtime/movie/theater/seat information, payment
// receipts and tickets. Writes go through Store; this type is read-only.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// SeatDetail is one reserved seat as rendered in API responses.
type SeatDetail struct {
	ID         uint64  `json:"id"`
	SeatNumber string  `json:"seatNumber"`
	RowName    string  `json:"rowName"`
	SeatColumn uint32  `json:"seatColumn"`
	SeatType   string  `json:"seatType"`
	Price      float64 `json:"price"`
}

// MovieSummary carries the movie fields shown on bookings and tickets.
type MovieSummary struct {
	ID          uint64  `json:"id"`
	Title       string  `json:"title"`
	PosterURL   *string `json:"posterUrl"`
	BackdropURL *string `json:"backdropUrl"`
	Duration    uint32  `json:"duration"`
	Rating      *string `json:"rating"`
	Genre       *string `json:"genre"`
}

// TheaterSummary carries the theater fields shown on bookings and tickets.
type TheaterSummary struct {
	ID      uint64  `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	ZipCode *string `json:"zipCode,omitempty"`
	Phone   *string `json:"phone"`
}

// ShowtimeSummary is the showtime block nested in booking responses.
type ShowtimeSummary struct {
	ID           uint64    `json:"id"`
	ShowTime     time.Time `json:"showTime"`
	ScreenNumber uint32    `json:"screenNumber"`
	Price        float64   `json:"price"`
}

// BookingDetail is the fully-joined booking returned from create/get/list.
type BookingDetail struct {
	ID               uint64          `json:"id"`
	BookingReference string          `json:"bookingReference"`
	Status           string          `json:"status"`
	PaymentStatus    string          `json:"paymentStatus"`
	PaymentReference *string         `json:"paymentReference,omitempty"`
	TotalAmount      float64         `json:"totalAmount"`
	BookingDate      time.Time       `json:"bookingDate"`
	Showtime         ShowtimeSummary `json:"showtime"`
	Movie            MovieSummary    `json:"movie"`
	Theater          TheaterSummary  `json:"theater"`
	Seats            []SeatDetail    `json:"seats"`
	SeatCount        int             `json:"seatCount"`
}

// BookingStub is the short booking block nested in payment responses.
type BookingStub struct {
	ID               uint64  `json:"id"`
	BookingReference string  `json:"bookingReference"`
	Status           string  `json:"status"`
	PaymentStatus    string  `json:"paymentStatus"`
	TotalAmount      float64 `json:"totalAmount"`
}

// PaymentReceipt is the receipt block of a completed payment.
type PaymentReceipt struct {
	PaymentReference string    `json:"paymentReference"`
	Amount           float64   `json:"amount"`
	Status           string    `json:"status"`
	PaidAt           time.Time `json:"paidAt"`
}

// PaymentDetail is the GET payment response: Payment stays nil while the
// booking is unpaid.
type PaymentDetail struct {
	Payment *PaymentReceipt `json:"payment"`
	Booking BookingStub     `json:"booking"`
}

const bookingDetailQuery = `
	SELECT b.id, b.reference, b.status, b.payment_status, b.payment_ref,
	       b.total_cents, b.created_at,
	       s.id, s.starts_at, s.screen_number, s.base_price_cents,
	       m.id, m.title, m.poster_url, m.backdrop_url, m.duration_min, m.rating, m.genre,
	       t.id, t.name, t.address, t.city, t.state, t.zip_code, t.phone
	FROM bookings b
	JOIN showtimes s ON s.id = b.showtime_id
	JOIN movies m ON m.id = s.movie_id
	JOIN theaters t ON t.id = s.theater_id`

// scanBookingDetail reads one row produced by bookingDetailQuery.
func scanBookingDetail(scan func(dest ...any) error) (*BookingDetail, error) {
	var d BookingDetail
	var payRef, rating, genre, poster, backdrop sql.NullString
	var addr, city, state, zip, phone sql.NullString
	var totalCents, basePriceCents int64
	err := scan(
		&d.ID, &d.BookingReference, &d.Status, &d.PaymentStatus, &payRef,
		&totalCents, &d.BookingDate,
		&d.Showtime.ID, &d.Showtime.ShowTime, &d.Showtime.ScreenNumber, &basePriceCents,
		&d.Movie.ID, &d.Movie.Title, &poster, &backdrop, &d.Movie.Duration, &rating, &genre,
		&d.Theater.ID, &d.Theater.Name, &addr, &city, &state, &zip, &phone,
	)
	if err != nil {
		return nil, err
	}
	d.TotalAmount = pricing.Dollars(totalCents)
	d.Showtime.Price = pricing.Dollars(basePriceCents)
	d.PaymentReference = nullable(payRef)
	d.Movie.PosterURL = nullable(poster)
	d.Movie.BackdropURL = nullable(backdrop)
	d.Movie.Rating = nullable(rating)
	d.Movie.Genre = nullable(genre)
	d.Theater.Address = nullable(addr)
	d.Theater.City = nullable(city)
	d.Theater.State = nullable(state)
	d.Theater.ZipCode = nullable(zip)
	d.Theater.Phone = nullable(phone)
	d.Seats = []SeatDetail{}
	return &d, nil
}

// DetailForUser returns one booking with its joins, restricted to the owning
// user. Missing or foreign bookings both yield booking.ErrNotFound.
func (r *BookingRepo) DetailForUser(ctx context.Context, bookingID, userID uint64) (*BookingDetail, error) {
	q := bookingDetailQuery + ` WHERE b.id = ? AND b.user_id = ?`
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
	return d, nil
}

// ListForUser returns all of a user's bookings, newest first, each with its
// seats populated in one batched query.
func (r *BookingRepo) ListForUser(ctx context.Context, userID uint64) ([]*BookingDetail, error) {
	q := bookingDetailQuery + ` WHERE b.user_id = ? ORDER BY b.created_at DESC`
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
	return details, nil
}

// PaymentForUser returns the payment view of a booking. Payment is nil while
// payment_status is still pending.
func (r *BookingRepo) PaymentForUser(ctx context.Context, bookingID, userID uint64) (*PaymentDetail, error) {
	const q = `SELECT id, reference, status, payment_status, payment_ref, total_cents, updated_at
	           FROM bookings WHERE id = ? AND user_id = ?`
	var stub BookingStub
	var payRef sql.NullString
	var totalCents int64
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, q, bookingID, userID).Scan(
		&stub.ID, &stub.BookingReference, &stub.Status, &stub.PaymentStatus,
		&payRef, &totalCents, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	stub.TotalAmount = pricing.Dollars(totalCents)

	detail := &PaymentDetail{Booking: stub}
	if stub.PaymentStatus == booking.PaymentStatusCompleted && payRef.Valid {
		detail.Payment = &PaymentReceipt{
			PaymentReference: payRef.String,
			Amount:           stub.TotalAmount,
			Status:           stub.PaymentStatus,
			PaidAt:           updatedAt,
		}
	}
	return detail, nil
}

// attachSeats populates Seats and SeatCount for the given details using a
// single IN query, mirroring the batched seat fetch the list endpoints need.
func (r *BookingRepo) attachSeats(ctx context.Context, details []*BookingDetail) error {
	if len(details) == 0 {
		return nil
	}
	index := make(map[uint64]*BookingDetail, len(details))
	ids := make([]any, 0, len(details))
	marks := make([]string, 0, len(details))
	for _, d := range details {
		index[d.ID] = d
		ids = append(ids, d.ID)
		marks = append(marks, "?")
	}
	q := `SELECT bs.booking_id, se.id, se.seat_number, se.row_label, se.seat_column, se.seat_type,
	             se.price_cents, s.base_price_cents
	      FROM booking_seats bs
	      JOIN bookings b ON b.id = bs.booking_id
	      JOIN showtimes s ON s.id = b.showtime_id
	      JOIN seats se ON se.id = bs.seat_id
	      WHERE bs.booking_id IN (` + strings.Join(marks, ",") + `)
	      ORDER BY bs.booking_id, se.row_label, se.seat_column`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bookingID uint64
		var seat SeatDetail
		var override sql.NullInt64
		var baseCents int64
		if err := rows.Scan(&bookingID, &seat.ID, &seat.SeatNumber, &seat.RowName,
			&seat.SeatColumn, &seat.SeatType, &override, &baseCents); err != nil {
			return err
		}
		cents := baseCents
		if override.Valid {
			cents = override.Int64
		}
		seat.Price = pricing.Dollars(cents)
		if d, ok := index[bookingID]; ok {
			d.Seats = append(d.Seats, seat)
			d.SeatCount = len(d.Seats)
		}
	}
	return rows.Err()
}

// nullable converts a NullString into the pointer form the JSON views use.
func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
