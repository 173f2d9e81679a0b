package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin gates a route group to users whose token carries the admin
// role. Must run after JWTAuth, which stores the "role" claim in context.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || role != "admin" {
				return c.JSON(http.StatusForbidden, failure{Message: "admin access required"})
			}
			return next(c)
		}
	}
}
