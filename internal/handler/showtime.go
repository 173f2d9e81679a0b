package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/repository"
)

// ShowtimeHandler serves the public showtime listings.
type ShowtimeHandler struct {
	Showtimes *repository.ShowtimeRepo
	now       func() time.Time
}

func NewShowtimeHandler(showtimes *repository.ShowtimeRepo) *ShowtimeHandler {
	return &ShowtimeHandler{Showtimes: showtimes, now: func() time.Time { return time.Now().UTC() }}
}

// List returns upcoming showtimes, filterable with ?movieId=, ?theaterId=
// and ?date=YYYY-MM-DD.
func (h *ShowtimeHandler) List(c echo.Context) error {
	f := repository.ShowtimeFilter{}
	if v := c.QueryParam("movieId"); v != "" {
		id, err := parseUint(v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid movieId")
		}
		f.MovieID = id
	}
	if v := c.QueryParam("theaterId"); v != "" {
		id, err := parseUint(v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid theaterId")
		}
		f.TheaterID = id
	}
	if v := c.QueryParam("date"); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return fail(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		f.Date = &day
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	list, err := h.Showtimes.List(ctx, f)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", list)
}

// Get returns one showtime with its movie and theater. Showtimes that have
// already started are not bookable and answer 400.
func (h *ShowtimeHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid showtime id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	st, err := h.Showtimes.ByID(ctx, id)
	if err != nil {
		return renderError(c, err)
	}
	if !st.ShowTime.After(h.now()) {
		return fail(c, http.StatusBadRequest, "this showtime has already started")
	}
	return respond(c, http.StatusOK, "", st)
}

// DatesForMovie returns the distinct upcoming days a movie screens on.
func (h *ShowtimeHandler) DatesForMovie(c echo.Context) error {
	movieID, ok := pathID(c, "movieId")
	if !ok {
		return fail(c, http.StatusBadRequest, "invalid movie id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	dates, err := h.Showtimes.DatesForMovie(ctx, movieID)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", dates)
}
