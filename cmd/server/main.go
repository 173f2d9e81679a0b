package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
	"github.com/screenpass/movie-ticket-booking/internal/config"
	"github.com/screenpass/movie-ticket-booking/internal/database"
	"github.com/screenpass/movie-ticket-booking/internal/handler"
	"github.com/screenpass/movie-ticket-booking/internal/payment"
	"github.com/screenpass/movie-ticket-booking/internal/queue"
	"github.com/screenpass/movie-ticket-booking/internal/repository"
	"github.com/screenpass/movie-ticket-booking/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	store := repository.NewStore(db)
	gateway := payment.NewMockGateway(time.Duration(cfg.PaymentDelayMS) * time.Millisecond)
	svc := booking.NewService(store, gateway)
	views := repository.NewBookingRepo(db)

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, repository.NewUserRepo(db)),
		Movies:    handler.NewMovieHandler(repository.NewMovieRepo(db)),
		Showtimes: handler.NewShowtimeHandler(repository.NewShowtimeRepo(db)),
		SeatMaps:  handler.NewSeatMapHandler(repository.NewSeatMapRepo(db)),
		Bookings:  handler.NewBookingHandler(svc, views),
		Payments:  handler.NewPaymentHandler(svc, views),
		Tickets:   handler.NewTicketHandler(views),
		Admin:     handler.NewAdminHandler(repository.NewMovieRepo(db), repository.NewShowtimeRepo(db)),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg, rdb)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
