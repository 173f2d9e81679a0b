package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
	"github.com/screenpass/movie-ticket-booking/internal/repository"
)

type fakeMovies struct {
	movies map[uint64]*repository.Movie
	nextID uint64
}

func (f *fakeMovies) List(_ context.Context, _ repository.MovieFilter) ([]*repository.Movie, error) {
	out := make([]*repository.Movie, 0, len(f.movies))
	for _, m := range f.movies {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeMovies) ByID(_ context.Context, id uint64) (*repository.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMovies) Create(_ context.Context, in repository.MovieInput) (*repository.Movie, error) {
	f.nextID++
	m := &repository.Movie{ID: f.nextID, Status: "coming_soon", IsActive: true}
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	f.movies[m.ID] = m
	cp := *m
	return &cp, nil
}

func (f *fakeMovies) Update(_ context.Context, id uint64, in repository.MovieInput) (*repository.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return nil, booking.ErrNotFound
	}
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMovies) SetActive(_ context.Context, id uint64, active bool) error {
	m, ok := f.movies[id]
	if !ok {
		return booking.ErrNotFound
	}
	m.IsActive = active
	return nil
}

func (f *fakeMovies) Stats(_ context.Context) (*repository.DashboardStats, error) {
	return &repository.DashboardStats{TotalMovies: int64(len(f.movies))}, nil
}

// fakeScheduler records scheduling calls so tests can assert when the stock
// run is (and is not) generated.
type fakeScheduler struct {
	upcoming map[uint64]bool
	runs     []uint64
	runSize  int
	active   map[uint64]bool
}

func (f *fakeScheduler) Create(_ context.Context, in repository.ShowtimeInput) (*repository.ShowtimeDetail, error) {
	return &repository.ShowtimeDetail{ID: 1, ShowTime: in.StartsAt}, nil
}

func (f *fakeScheduler) SetActive(_ context.Context, id uint64, active bool) error {
	f.active[id] = active
	return nil
}

func (f *fakeScheduler) HasUpcoming(_ context.Context, movieID uint64) (bool, error) {
	return f.upcoming[movieID], nil
}

func (f *fakeScheduler) ScheduleDefaultRun(_ context.Context, movieID uint64, _ time.Time) (int, error) {
	f.runs = append(f.runs, movieID)
	return f.runSize, nil
}

func adminFixture() (*AdminHandler, *fakeMovies, *fakeScheduler) {
	movies := &fakeMovies{movies: map[uint64]*repository.Movie{}}
	sched := &fakeScheduler{
		upcoming: map[uint64]bool{},
		runSize:  21,
		active:   map[uint64]bool{},
	}
	return NewAdminHandler(movies, sched), movies, sched
}

func adminRequest(t *testing.T, method, body, paramName, paramValue string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if paramName != "" {
		c.SetParamNames(paramName)
		c.SetParamValues(paramValue)
	}
	return c, rec
}

func TestToggleMovieStatusSchedulesRun(t *testing.T) {
	h, movies, sched := adminFixture()
	movies.movies[1] = &repository.Movie{ID: 1, Title: "Dune", Status: "coming_soon", IsActive: true}

	c, rec := adminRequest(t, http.MethodPatch, "", "id", "1")
	require.NoError(t, h.ToggleMovieStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "streaming_now", movies.movies[1].Status)
	assert.Equal(t, []uint64{1}, sched.runs)

	body := decodeEnvelope(t, rec)
	assert.Contains(t, body["message"], "with showtimes created")
}

func TestToggleMovieStatusBackToComingSoon(t *testing.T) {
	h, movies, sched := adminFixture()
	movies.movies[1] = &repository.Movie{ID: 1, Title: "Dune", Status: "streaming_now", IsActive: true}

	c, rec := adminRequest(t, http.MethodPatch, "", "id", "1")
	require.NoError(t, h.ToggleMovieStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "coming_soon", movies.movies[1].Status)
	// Leaving streaming_now never generates showtimes.
	assert.Empty(t, sched.runs)
}

func TestToggleMovieStatusKeepsExistingSchedule(t *testing.T) {
	h, movies, sched := adminFixture()
	movies.movies[1] = &repository.Movie{ID: 1, Title: "Dune", Status: "coming_soon", IsActive: true}
	sched.upcoming[1] = true

	c, rec := adminRequest(t, http.MethodPatch, "", "id", "1")
	require.NoError(t, h.ToggleMovieStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, sched.runs)

	body := decodeEnvelope(t, rec)
	assert.Equal(t, "movie status changed to streaming_now", body["message"])
}

func TestToggleMovieStatusUnknownMovie(t *testing.T) {
	h, _, _ := adminFixture()

	c, rec := adminRequest(t, http.MethodPatch, "", "id", "99")
	require.NoError(t, h.ToggleMovieStatus(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateMovieStreamingNowSchedulesRun(t *testing.T) {
	h, _, sched := adminFixture()

	body := `{"title":"Dune","duration":155,"status":"streaming_now"}`
	c, rec := adminRequest(t, http.MethodPost, body, "", "")
	require.NoError(t, h.CreateMovie(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []uint64{1}, sched.runs)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "movie created successfully with showtimes", env["message"])
}

func TestCreateMovieComingSoonSkipsRun(t *testing.T) {
	h, _, sched := adminFixture()

	body := `{"title":"Dune","duration":155}`
	c, rec := adminRequest(t, http.MethodPost, body, "", "")
	require.NoError(t, h.CreateMovie(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, sched.runs)
}

func TestDeleteAndRestoreShowtime(t *testing.T) {
	h, _, sched := adminFixture()

	c, rec := adminRequest(t, http.MethodDelete, "", "id", "5")
	require.NoError(t, h.DeleteShowtime(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[uint64]bool{5: false}, sched.active)

	c, rec = adminRequest(t, http.MethodPut, "", "id", "5")
	require.NoError(t, h.RestoreShowtime(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[uint64]bool{5: true}, sched.active)
}
