// Package router wires URL paths to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/screenpass/movie-ticket-booking/internal/config"
	"github.com/screenpass/movie-ticket-booking/internal/handler"
	"github.com/screenpass/movie-ticket-booking/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Movies    *handler.MovieHandler
	Showtimes *handler.ShowtimeHandler
	SeatMaps  *handler.SeatMapHandler
	Bookings  *handler.BookingHandler
	Payments  *handler.PaymentHandler
	Tickets   *handler.TicketHandler
	Admin     *handler.AdminHandler
}

// Register mounts the full API under /api. Public catalog endpoints carry
// the Redis response cache; everything passes the token-bucket rate limiter.
// rdb may be nil, in which case caching and rate limiting are disabled.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/", handler.Health)
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	api := e.Group("/api", limiter)

	// Auth.
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", h.Auth.Me, middleware.JWTAuth(cfg.JWTSecret))

	// Public catalog, cached.
	api.GET("/movies", h.Movies.List, cache)
	api.GET("/movies/:id", h.Movies.Get, cache)
	api.GET("/showtimes", h.Showtimes.List, cache)
	api.GET("/showtimes/:id", h.Showtimes.Get, cache)
	api.GET("/showtimes/movie/:movieId/dates", h.Showtimes.DatesForMovie, cache)

	// Seat maps are live availability, never cached.
	api.GET("/showtimes/:id/seats", h.SeatMaps.ForShowtime)
	api.POST("/showtimes/:id/seats/check", h.SeatMaps.Check)

	// Booking lifecycle, authenticated.
	user := api.Group("", middleware.JWTAuth(cfg.JWTSecret))
	user.POST("/bookings", h.Bookings.Create)
	user.GET("/bookings", h.Bookings.List)
	user.GET("/bookings/:id", h.Bookings.Get)
	user.DELETE("/bookings/:id", h.Bookings.Cancel)
	user.POST("/bookings/:id/payment", h.Payments.Pay)
	user.GET("/bookings/:id/payment", h.Payments.Get)
	user.GET("/tickets", h.Tickets.List)
	user.GET("/tickets/:bookingId", h.Tickets.Get)
	user.GET("/tickets/:bookingId/qr", h.Tickets.QR)

	// Back office.
	api.POST("/admin/login", h.Auth.AdminLogin)
	admin := api.Group("/admin", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireAdmin())
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/movies", h.Admin.ListMovies)
	admin.POST("/movies", h.Admin.CreateMovie)
	admin.PUT("/movies/:id", h.Admin.UpdateMovie)
	admin.DELETE("/movies/:id", h.Admin.DeleteMovie)
	admin.PATCH("/movies/:id/status", h.Admin.ToggleMovieStatus)
	admin.PUT("/movies/:id/restore", h.Admin.RestoreMovie)
	admin.POST("/showtimes", h.Admin.CreateShowtime)
	admin.DELETE("/showtimes/:id", h.Admin.DeleteShowtime)
	admin.PUT("/showtimes/:id/restore", h.Admin.RestoreShowtime)
}
