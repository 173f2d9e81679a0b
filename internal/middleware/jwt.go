package middleware // reusable HTTP middleware for the API

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/utils"
)

// failure is the envelope shape for middleware rejections, matching the
// handlers' response format.
type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JWTAuth validates a Bearer access token and injects the identity claims
// into the echo context: "user_id" (uint64), "email" and "role" (string).
// Protected handlers read them back via c.Get.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, failure{Message: "authentication required"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, email, role, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, failure{Message: "invalid or expired token"})
			}
			c.Set("user_id", userID)
			c.Set("email", email)
			c.Set("role", role)
			return next(c)
		}
	}
}
