package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers load-balancer and uptime probes.
func Health(c echo.Context) error {
	return respond(c, http.StatusOK, "movie ticket booking API", nil)
}
