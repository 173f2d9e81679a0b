package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/repository"
)

// MovieHandler serves the public movie catalog.
type MovieHandler struct {
	Movies *repository.MovieRepo
}

func NewMovieHandler(movies *repository.MovieRepo) *MovieHandler {
	return &MovieHandler{Movies: movies}
}

// List returns active movies, filterable with ?status=, ?genre= and
// ?search=.
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	movies, err := h.Movies.List(ctx, repository.MovieFilter{
		Status: c.QueryParam("status"),
		Genre:  c.QueryParam("genre"),
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", movies)
}

// Get returns one movie with its upcoming showtimes.
func (h *MovieHandler) Get(c echo.Context) error {
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
	if !m.IsActive {
		return fail(c, http.StatusNotFound, "not found")
	}
	return respond(c, http.StatusOK, "", m)
}
