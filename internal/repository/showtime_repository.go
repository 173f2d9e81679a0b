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

// ShowtimeRepo serves the public showtime listings and the admin scheduling
// surface. Bookable-showtime lookups for the reservation path live on Store;
// this type only builds read models.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo returns a ShowtimeRepo bound to the given database.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// ShowtimeDetail is a showtime with its movie and theater joined in, as
// rendered by the listing and detail endpoints.
type ShowtimeDetail struct {
	ID             uint64         `json:"id"`
	ShowTime       time.Time      `json:"showTime"`
	ScreenNumber   uint32         `json:"screenNumber"`
	Price          float64        `json:"price"`
	TotalSeats     uint32         `json:"totalSeats"`
	AvailableSeats uint32         `json:"availableSeats"`
	Movie          MovieSummary   `json:"movie"`
	Theater        TheaterSummary `json:"theater"`
}

// ShowtimeFilter narrows List results. Zero values mean "no filter"; Date
// restricts to one calendar day (UTC).
type ShowtimeFilter struct {
	MovieID   uint64
	TheaterID uint64
	Date      *time.Time
}

const showtimeDetailQuery = `
	SELECT s.id, s.starts_at, s.screen_number, s.base_price_cents, s.total_seats, s.available_seats,
	       m.id, m.title, m.poster_url, m.backdrop_url, m.duration_min, m.rating, m.genre,
	       t.id, t.name, t.address, t.city, t.state, t.zip_code, t.phone
	FROM showtimes s
	JOIN movies m ON m.id = s.movie_id
	JOIN theaters t ON t.id = s.theater_id`

func scanShowtimeDetail(scan func(dest ...any) error) (*ShowtimeDetail, error) {
	var d ShowtimeDetail
	var priceCents int64
	var poster, backdrop, rating, genre sql.NullString
	var addr, city, state, zip, phone sql.NullString
	err := scan(
		&d.ID, &d.ShowTime, &d.ScreenNumber, &priceCents, &d.TotalSeats, &d.AvailableSeats,
		&d.Movie.ID, &d.Movie.Title, &poster, &backdrop, &d.Movie.Duration, &rating, &genre,
		&d.Theater.ID, &d.Theater.Name, &addr, &city, &state, &zip, &phone,
	)
	if err != nil {
		return nil, err
	}
	d.Price = pricing.Dollars(priceCents)
	d.Movie.PosterURL = nullable(poster)
	d.Movie.BackdropURL = nullable(backdrop)
	d.Movie.Rating = nullable(rating)
	d.Movie.Genre = nullable(genre)
	d.Theater.Address = nullable(addr)
	d.Theater.City = nullable(city)
	d.Theater.State = nullable(state)
	d.Theater.ZipCode = nullable(zip)
	d.Theater.Phone = nullable(phone)
	return &d, nil
}

// List returns upcoming active showtimes matching the filter, soonest first.
func (r *ShowtimeRepo) List(ctx context.Context, f ShowtimeFilter) ([]*ShowtimeDetail, error) {
	conds := []string{"s.is_active = 1", "m.is_active = 1", "s.starts_at >= UTC_TIMESTAMP()"}
	args := []any{}
	if f.MovieID != 0 {
		conds = append(conds, "s.movie_id = ?")
		args = append(args, f.MovieID)
	}
	if f.TheaterID != 0 {
		conds = append(conds, "s.theater_id = ?")
		args = append(args, f.TheaterID)
	}
	if f.Date != nil {
		day := f.Date.UTC().Truncate(24 * time.Hour)
		conds = append(conds, "s.starts_at >= ?", "s.starts_at < ?")
		args = append(args, day, day.Add(24*time.Hour))
	}
	q := showtimeDetailQuery + ` WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY s.starts_at`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*ShowtimeDetail, 0)
	for rows.Next() {
		d, err := scanShowtimeDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ByID returns a single showtime with joins, or booking.ErrNotFound.
func (r *ShowtimeRepo) ByID(ctx context.Context, id uint64) (*ShowtimeDetail, error) {
	q := showtimeDetailQuery + ` WHERE s.id = ?`
	d, err := scanShowtimeDetail(func(dest ...any) error {
		return r.db.QueryRowContext(ctx, q, id).Scan(dest...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	return d, err
}

// DatesForMovie returns the distinct upcoming days (UTC, YYYY-MM-DD) on
// which the movie has active showtimes. Clients use it to build the date
// picker without loading every showtime.
func (r *ShowtimeRepo) DatesForMovie(ctx context.Context, movieID uint64) ([]string, error) {
	const q = `SELECT DISTINCT DATE(s.starts_at)
	           FROM showtimes s
	           WHERE s.movie_id = ? AND s.is_active = 1 AND s.starts_at >= UTC_TIMESTAMP()
	           ORDER BY 1`
	rows, err := r.db.QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make([]string, 0)
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		dates = append(dates, day.Format("2006-01-02"))
	}
	return dates, rows.Err()
}

// ShowtimeInput carries the fields for admin showtime creation. Prices come
// in as dollars and are stored as cents.
type ShowtimeInput struct {
	MovieID      uint64
	TheaterID    uint64
	ScreenNumber uint32
	StartsAt     time.Time
	Price        float64
}

// Create schedules a showtime. The seat counters are initialized from the
// theater's seat layout for the target screen, so availability figures start
// out consistent with the floor plan.
func (r *ShowtimeRepo) Create(ctx context.Context, in ShowtimeInput) (*ShowtimeDetail, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var seatCount uint32
	const countQ = `SELECT COUNT(*) FROM seats WHERE theater_id = ? AND screen_number = ? AND is_active = 1`
	if err := tx.QueryRowContext(ctx, countQ, in.TheaterID, in.ScreenNumber).Scan(&seatCount); err != nil {
		return nil, err
	}
	if seatCount == 0 {
		return nil, booking.Invalidf("no seats configured for theater %d screen %d", in.TheaterID, in.ScreenNumber)
	}

	const insQ = `INSERT INTO showtimes
	                (movie_id, theater_id, screen_number, starts_at, base_price_cents, total_seats, available_seats)
	              VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, insQ,
		in.MovieID, in.TheaterID, in.ScreenNumber, in.StartsAt.UTC(),
		pricing.ParseAmount(in.Price), seatCount, seatCount,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.ByID(ctx, uint64(id))
}

// Stock run created when a movie goes streaming_now with nothing scheduled:
// seven days of afternoon, evening and night slots on the first active
// theater's screen 1.
const (
	defaultRunDays   = 7
	defaultRunScreen = 1
)

var defaultRunSlots = []struct {
	hour       int
	priceCents int64
}{
	{14, 1250},
	{17, 1500},
	{20, 1500},
}

// HasUpcoming reports whether the movie has any active future showtime.
func (r *ShowtimeRepo) HasUpcoming(ctx context.Context, movieID uint64) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM showtimes
	             WHERE movie_id = ? AND is_active = 1 AND starts_at >= UTC_TIMESTAMP())`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, movieID).Scan(&ok)
	return ok, err
}

// ScheduleDefaultRun creates the stock run for a movie, skipping slots that
// have already passed today, and returns how many showtimes were created.
// Zero without error means no active theater (or no seats on its first
// screen) exists; callers treat the run as best-effort and fall back to
// manual scheduling.
func (r *ShowtimeRepo) ScheduleDefaultRun(ctx context.Context, movieID uint64, from time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var theaterID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM theaters WHERE is_active = 1 ORDER BY id LIMIT 1`).Scan(&theaterID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var seatCount uint32
	const countQ = `SELECT COUNT(*) FROM seats WHERE theater_id = ? AND screen_number = ? AND is_active = 1`
	if err := tx.QueryRowContext(ctx, countQ, theaterID, defaultRunScreen).Scan(&seatCount); err != nil {
		return 0, err
	}
	if seatCount == 0 {
		return 0, nil
	}

	const insQ = `INSERT INTO showtimes
	                (movie_id, theater_id, screen_number, starts_at, base_price_cents, total_seats, available_seats)
	              VALUES (?, ?, ?, ?, ?, ?, ?)`
	day := from.UTC().Truncate(24 * time.Hour)
	created := 0
	for d := 0; d < defaultRunDays; d++ {
		for _, slot := range defaultRunSlots {
			startsAt := day.Add(time.Duration(d)*24*time.Hour + time.Duration(slot.hour)*time.Hour)
			if !startsAt.After(from) {
				continue
			}
			if _, err := tx.ExecContext(ctx, insQ,
				movieID, theaterID, defaultRunScreen, startsAt, slot.priceCents, seatCount, seatCount,
			); err != nil {
				return 0, err
			}
			created++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return created, nil
}

// SetActive flips a showtime's visibility without touching bookings.
func (r *ShowtimeRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE showtimes SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM showtimes WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return booking.ErrNotFound
		}
	}
	return nil
}
