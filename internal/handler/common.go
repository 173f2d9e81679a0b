package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// reqContext derives the bounded context handlers pass to repositories.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// currentUserID reads the authenticated user id injected by the JWT
// middleware. Returns 0 when the request is unauthenticated.
func currentUserID(c echo.Context) uint64 {
	id, _ := c.Get("user_id").(uint64)
	return id
}

// pathID parses a numeric path parameter; ok is false for junk input.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := parseUint(c.Param(name))
	if err != nil {
		return 0, false
	}
	return id, true
}

// parseUint parses a positive decimal id.
func parseUint(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
