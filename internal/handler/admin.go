package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/repository"
)

// movieCatalog and showtimeScheduler are the slices of the repository layer
// the admin surface depends on; tests substitute in-memory fakes.
type movieCatalog interface {
	List(ctx context.Context, f repository.MovieFilter) ([]*repository.Movie, error)
	ByID(ctx context.Context, id uint64) (*repository.Movie, error)
	Create(ctx context.Context, in repository.MovieInput) (*repository.Movie, error)
	Update(ctx context.Context, id uint64, in repository.MovieInput) (*repository.Movie, error)
	SetActive(ctx context.Context, id uint64, active bool) error
	Stats(ctx context.Context) (*repository.DashboardStats, error)
}

type showtimeScheduler interface {
	Create(ctx context.Context, in repository.ShowtimeInput) (*repository.ShowtimeDetail, error)
	SetActive(ctx context.Context, id uint64, active bool) error
	HasUpcoming(ctx context.Context, movieID uint64) (bool, error)
	ScheduleDefaultRun(ctx context.Context, movieID uint64, from time.Time) (int, error)
}

// AdminHandler is the back-office surface: movie management, showtime
// scheduling and the dashboard. All routes sit behind JWTAuth +
// RequireAdmin.
type AdminHandler struct {
	Movies    movieCatalog
	Showtimes showtimeScheduler
	now       func() time.Time
}

func NewAdminHandler(movies movieCatalog, showtimes showtimeScheduler) *AdminHandler {
	return &AdminHandler{
		Movies:    movies,
		Showtimes: showtimes,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListMovies returns every movie, inactive ones included.
func (h *AdminHandler) ListMovies(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	movies, err := h.Movies.List(ctx, repository.MovieFilter{
		Status:          c.QueryParam("status"),
		Search:          c.QueryParam("search"),
		IncludeInactive: true,
	})
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", movies)
}

type movieReq struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Genre       *string  `json:"genre"`
	Duration    *uint32  `json:"duration"`
	Rating      *string  `json:"rating"`
	Score       *float64 `json:"score"`
	PosterURL   *string  `json:"posterUrl"`
	BackdropURL *string  `json:"backdropUrl"`
	TrailerURL  *string  `json:"trailerUrl"`
	Language    *string  `json:"language"`
	Director    *string  `json:"director"`
	ReleaseDate *string  `json:"releaseDate"` // YYYY-MM-DD
	Status      *string  `json:"status"`
}

func (r movieReq) input() (repository.MovieInput, error) {
	in := repository.MovieInput{
		Title: r.Title, Description: r.Description, Genre: r.Genre,
		Duration: r.Duration, Rating: r.Rating, Score: r.Score,
		PosterURL: r.PosterURL, BackdropURL: r.BackdropURL, TrailerURL: r.TrailerURL,
		Language: r.Language, Director: r.Director, Status: r.Status,
	}
	if r.ReleaseDate != nil {
		d, err := time.ParseInLocation("2006-01-02", *r.ReleaseDate, time.UTC)
		if err != nil {
			return in, err
		}
		in.ReleaseDate = &d
	}
	return in, nil
}

// CreateMovie adds a movie to the catalog.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Title == nil || *req.Title == "" || req.Duration == nil || *req.Duration == 0 {
		return fail(c, http.StatusBadRequest, "title and duration are required")
	}
	in, err := req.input()
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid releaseDate, expected YYYY-MM-DD")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Movies.Create(ctx, in)
	if err != nil {
		return renderError(c, err)
	}

	// A movie that opens as streaming_now gets the stock run right away so
	// it is bookable without a second scheduling call.
	msg := "movie created successfully"
	if m.Status == "streaming_now" {
		n, err := h.Showtimes.ScheduleDefaultRun(ctx, m.ID, h.now())
		if err != nil {
			return renderError(c, err)
		}
		if n > 0 {
			msg = "movie created successfully with showtimes"
			if m, err = h.Movies.ByID(ctx, m.ID); err != nil {
				return renderError(c, err)
			}
		}
	}
	return respond(c, http.StatusCreated, msg, m)
}

// UpdateMovie applies a partial update; absent fields stay unchanged.
func (h *AdminHandler) UpdateMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	in, err := req.input()
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid releaseDate, expected YYYY-MM-DD")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Movies.Update(ctx, id, in)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "movie updated successfully", m)
}

// DeleteMovie deactivates a movie and its future showtimes. Rows are kept so
// existing bookings retain their history.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Movies.SetActive(ctx, id, false); err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "movie removed from catalog", nil)
}

// RestoreMovie re-activates a previously removed movie.
func (h *AdminHandler) RestoreMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Movies.SetActive(ctx, id, true); err != nil {
		return renderError(c, err)
	}
	m, err := h.Movies.ByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "movie restored", m)
}

// ToggleMovieStatus flips a movie between streaming_now and coming_soon.
// Moving to streaming_now schedules the stock run when the movie has no
// upcoming showtimes, so it becomes bookable in the same call.
func (h *AdminHandler) ToggleMovieStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Movies.ByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	next := "streaming_now"
	if m.Status == "streaming_now" {
		next = "coming_soon"
	}
	m, err = h.Movies.Update(ctx, id, repository.MovieInput{Status: &next})
	if err != nil {
		return renderError(c, err)
	}

	msg := "movie status changed to " + next
	if next == "streaming_now" {
		scheduled, err := h.Showtimes.HasUpcoming(ctx, id)
		if err != nil {
			return renderError(c, err)
		}
		if !scheduled {
			n, err := h.Showtimes.ScheduleDefaultRun(ctx, id, h.now())
			if err != nil {
				return renderError(c, err)
			}
			if n > 0 {
				msg += " with showtimes created"
				if m, err = h.Movies.ByID(ctx, id); err != nil {
					return renderError(c, err)
				}
			}
		}
	}
	return respond(c, http.StatusOK, msg, m)
}

type createShowtimeReq struct {
	MovieID      uint64  `json:"movieId"`
	TheaterID    uint64  `json:"theaterId"`
	ScreenNumber uint32  `json:"screenNumber"`
	StartsAt     string  `json:"startsAt"` // RFC 3339
	Price        float64 `json:"price"`
}

// CreateShowtime schedules a screening; seat counters are initialized from
// the screen's seat layout.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
	var req createShowtimeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.MovieID == 0 || req.TheaterID == 0 || req.ScreenNumber == 0 || req.Price <= 0 {
		return fail(c, http.StatusBadRequest, "movieId, theaterId, screenNumber and price are required")
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid startsAt, expected RFC 3339 timestamp")
	}
	if !startsAt.After(time.Now().UTC()) {
		return fail(c, http.StatusBadRequest, "startsAt must be in the future")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	st, err := h.Showtimes.Create(ctx, repository.ShowtimeInput{
		MovieID:      req.MovieID,
		TheaterID:    req.TheaterID,
		ScreenNumber: req.ScreenNumber,
		StartsAt:     startsAt,
		Price:        req.Price,
	})
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusCreated, "showtime created successfully", st)
}

// DeleteShowtime takes a showtime off sale. Rows and existing bookings are
// untouched.
func (h *AdminHandler) DeleteShowtime(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid showtime id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Showtimes.SetActive(ctx, id, false); err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "showtime removed from schedule", nil)
}

// RestoreShowtime puts a removed showtime back on sale.
func (h *AdminHandler) RestoreShowtime(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid showtime id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Showtimes.SetActive(ctx, id, true); err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "showtime restored", nil)
}

// Dashboard returns the aggregate counters for the admin landing page.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	stats, err := h.Movies.Stats(ctx)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", stats)
}
