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

// MovieRepo provides catalog and admin access to movies. Public listings
// only ever see active movies; the admin surface can list, edit and
// deactivate everything.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo returns a MovieRepo bound to the given database.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Movie mirrors the movies table and is rendered directly in responses.
type Movie struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Genre       *string           `json:"genre"`
	Duration    uint32            `json:"duration"`
	Rating      *string           `json:"rating"`
	Score       *float64          `json:"score"`
	PosterURL   *string           `json:"posterUrl"`
	BackdropURL *string           `json:"backdropUrl"`
	TrailerURL  *string           `json:"trailerUrl"`
	Language    *string           `json:"language"`
	Director    *string           `json:"director"`
	ReleaseDate *time.Time        `json:"releaseDate"`
	Status      string            `json:"status"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Showtimes   []ShowtimePreview `json:"showtimes,omitempty"`
}

// ShowtimePreview is the compact upcoming-showtime block attached to movie
// listings so clients can render "next showings" without a second request.
type ShowtimePreview struct {
	ID             uint64       `json:"id"`
	ShowTime       time.Time    `json:"showTime"`
	Price          float64      `json:"price"`
	AvailableSeats uint32       `json:"availableSeats"`
	Theater        TheaterBrief `json:"theater"`
}

// TheaterBrief is the minimal theater block nested in previews.
type TheaterBrief struct {
	ID   uint64  `json:"id"`
	Name string  `json:"name"`
	City *string `json:"city"`
}

// MovieFilter narrows List results. Zero values mean "no filter".
type MovieFilter struct {
	Status          string // streaming_now | coming_soon
	Genre           string // substring match
	Search          string // title substring match
	IncludeInactive bool   // admin listings only
}

const movieColumns = `id, title, description, genre, duration_min, rating, score, poster_url,
	backdrop_url, trailer_url, language, director, release_date, status, is_active,
	created_at, updated_at`

// previewLimit caps the upcoming showtimes attached per movie in listings.
const previewLimit = 5

func scanMovie(scan func(dest ...any) error) (*Movie, error) {
	var m Movie
	var desc, genre, rating, poster, backdrop, trailer, lang, director sql.NullString
	var score sql.NullFloat64
	var release sql.NullTime
	err := scan(
		&m.ID, &m.Title, &desc, &genre, &m.Duration, &rating, &score, &poster,
		&backdrop, &trailer, &lang, &director, &release, &m.Status, &m.IsActive,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Description = nullable(desc)
	m.Genre = nullable(genre)
	m.Rating = nullable(rating)
	m.PosterURL = nullable(poster)
	m.BackdropURL = nullable(backdrop)
	m.TrailerURL = nullable(trailer)
	m.Language = nullable(lang)
	m.Director = nullable(director)
	if score.Valid {
		v := score.Float64
		m.Score = &v
	}
	if release.Valid {
		t := release.Time
		m.ReleaseDate = &t
	}
	return &m, nil
}

// List returns movies matching the filter, newest release first, each with
// up to five upcoming showtime previews.
func (r *MovieRepo) List(ctx context.Context, f MovieFilter) ([]*Movie, error) {
	conds := []string{"1=1"}
	args := []any{}
	if !f.IncludeInactive {
		conds = append(conds, "is_active = 1")
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Genre != "" {
		conds = append(conds, "genre LIKE ?")
		args = append(args, "%"+f.Genre+"%")
	}
	if f.Search != "" {
		conds = append(conds, "title LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	q := `SELECT ` + movieColumns + ` FROM movies WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY release_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]*Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows.Scan)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachPreviews(ctx, movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// ByID returns one movie with all its upcoming showtime previews, or
// booking.ErrNotFound.
func (r *MovieRepo) ByID(ctx context.Context, id uint64) (*Movie, error) {
	q := `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`
	m, err := scanMovie(func(dest ...any) error {
		return r.db.QueryRowContext(ctx, q, id).Scan(dest...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachPreviews(ctx, []*Movie{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// attachPreviews batches the upcoming showtimes for the listed movies and
// caps them at previewLimit per movie.
func (r *MovieRepo) attachPreviews(ctx context.Context, movies []*Movie) error {
	if len(movies) == 0 {
		return nil
	}
	index := make(map[uint64]*Movie, len(movies))
	ids := make([]any, 0, len(movies))
	marks := make([]string, 0, len(movies))
	for _, m := range movies {
		index[m.ID] = m
		ids = append(ids, m.ID)
		marks = append(marks, "?")
	}
	q := `SELECT s.movie_id, s.id, s.starts_at, s.base_price_cents, s.available_seats,
	             t.id, t.name, t.city
	      FROM showtimes s
	      JOIN theaters t ON t.id = s.theater_id
	      WHERE s.movie_id IN (` + strings.Join(marks, ",") + `)
	        AND s.is_active = 1 AND s.starts_at >= UTC_TIMESTAMP()
	      ORDER BY s.movie_id, s.starts_at`
	rows, err := r.db.QueryContext(ctx, q, ids...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var movieID uint64
		var p ShowtimePreview
		var priceCents int64
		var city sql.NullString
		if err := rows.Scan(&movieID, &p.ID, &p.ShowTime, &priceCents, &p.AvailableSeats,
			&p.Theater.ID, &p.Theater.Name, &city); err != nil {
			return err
		}
		p.Price = pricing.Dollars(priceCents)
		p.Theater.City = nullable(city)
		if m, ok := index[movieID]; ok && len(m.Showtimes) < previewLimit {
			m.Showtimes = append(m.Showtimes, p)
		}
	}
	return rows.Err()
}

// MovieInput carries the writable movie fields for admin create/update.
// Nil pointers on update mean "leave unchanged".
type MovieInput struct {
	Title       *string
	Description *string
	Genre       *string
	Duration    *uint32
	Rating      *string
	Score       *float64
	PosterURL   *string
	BackdropURL *string
	TrailerURL  *string
	Language    *string
	Director    *string
	ReleaseDate *time.Time
	Status      *string
}

// Create inserts a movie and returns it with defaults populated.
func (r *MovieRepo) Create(ctx context.Context, in MovieInput) (*Movie, error) {
	const q = `INSERT INTO movies (title, description, genre, duration_min, rating, score,
	               poster_url, backdrop_url, trailer_url, language, director, release_date, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	status := "coming_soon"
	if in.Status != nil {
		status = *in.Status
	}
	var duration uint32
	if in.Duration != nil {
		duration = *in.Duration
	}
	res, err := r.db.ExecContext(ctx, q,
		deref(in.Title), in.Description, in.Genre, duration, in.Rating, in.Score,
		in.PosterURL, in.BackdropURL, in.TrailerURL, in.Language, in.Director,
		in.ReleaseDate, status,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, uint64(id))
}

// Update applies the non-nil fields of in to the movie. Returns the updated
// row or booking.ErrNotFound.
func (r *MovieRepo) Update(ctx context.Context, id uint64, in MovieInput) (*Movie, error) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if in.Title != nil {
		add("title", *in.Title)
	}
	if in.Description != nil {
		add("description", *in.Description)
	}
	if in.Genre != nil {
		add("genre", *in.Genre)
	}
	if in.Duration != nil {
		add("duration_min", *in.Duration)
	}
	if in.Rating != nil {
		add("rating", *in.Rating)
	}
	if in.Score != nil {
		add("score", *in.Score)
	}
	if in.PosterURL != nil {
		add("poster_url", *in.PosterURL)
	}
	if in.BackdropURL != nil {
		add("backdrop_url", *in.BackdropURL)
	}
	if in.TrailerURL != nil {
		add("trailer_url", *in.TrailerURL)
	}
	if in.Language != nil {
		add("language", *in.Language)
	}
	if in.Director != nil {
		add("director", *in.Director)
	}
	if in.ReleaseDate != nil {
		add("release_date", *in.ReleaseDate)
	}
	if in.Status != nil {
		add("status", *in.Status)
	}
	if len(sets) > 0 {
		q := `UPDATE movies SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		args = append(args, id)
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return nil, err
		}
	}
	return r.ByID(ctx, id)
}

// SetActive activates or deactivates a movie. Deactivation also deactivates
// the movie's future showtimes so nothing unbookable stays listed; existing
// bookings are untouched. A hard DELETE would orphan booking history, so the
// admin delete endpoint routes here instead.
func (r *MovieRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE movies SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "already in that state".
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM movies WHERE id = ?)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return booking.ErrNotFound
		}
	}
	if !active {
		const q = `UPDATE showtimes SET is_active = 0 WHERE movie_id = ? AND starts_at >= UTC_TIMESTAMP()`
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DashboardStats aggregates the counters shown on the admin dashboard.
type DashboardStats struct {
	TotalMovies       int64   `json:"totalMovies"`
	ActiveMovies      int64   `json:"activeMovies"`
	StreamingNow      int64   `json:"streamingNow"`
	ComingSoon        int64   `json:"comingSoon"`
	TotalBookings     int64   `json:"totalBookings"`
	ConfirmedBookings int64   `json:"confirmedBookings"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalUsers        int64   `json:"totalUsers"`
	UpcomingShowtimes int64   `json:"upcomingShowtimes"`
}

// Stats runs the dashboard aggregation in a single round trip.
func (r *MovieRepo) Stats(ctx context.Context) (*DashboardStats, error) {
	const q = `SELECT
	    (SELECT COUNT(*) FROM movies),
	    (SELECT COUNT(*) FROM movies WHERE is_active = 1),
	    (SELECT COUNT(*) FROM movies WHERE is_active = 1 AND status = 'streaming_now'),
	    (SELECT COUNT(*) FROM movies WHERE is_active = 1 AND status = 'coming_soon'),
	    (SELECT COUNT(*) FROM bookings),
	    (SELECT COUNT(*) FROM bookings WHERE status = 'confirmed'),
	    (SELECT COALESCE(SUM(total_cents), 0) FROM bookings WHERE status = 'confirmed'),
	    (SELECT COUNT(*) FROM users),
	    (SELECT COUNT(*) FROM showtimes WHERE is_active = 1 AND starts_at >= UTC_TIMESTAMP())`
	var s DashboardStats
	var revenueCents int64
	err := r.db.QueryRowContext(ctx, q).Scan(
		&s.TotalMovies, &s.ActiveMovies, &s.StreamingNow, &s.ComingSoon,
		&s.TotalBookings, &s.ConfirmedBookings, &revenueCents, &s.TotalUsers,
		&s.UpcomingShowtimes,
	)
	if err != nil {
		return nil, err
	}
	s.TotalRevenue = pricing.Dollars(revenueCents)
	return &s, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
