// Command seed populates a fresh database with demo data: two theaters with
// full seat grids, a small movie catalog, a week of showtimes and demo
// accounts. It refuses to run against a database that already has movies.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/screenpass/movie-ticket-booking/internal/config"
	"github.com/screenpass/movie-ticket-booking/internal/database"
	"github.com/screenpass/movie-ticket-booking/internal/utils"
)

const (
	seatRows    = "ABCDEFGH"
	seatColumns = 12
	// G and H are the premium back rows; 4 and 9 border the aisles.
	premiumRows       = "GH"
	premiumPriceCents = 1500
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var movieCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&movieCount); err != nil {
		log.Fatalf("probe movies: %v", err)
	}
	if movieCount > 0 {
		log.Println("database already seeded; nothing to do")
		return
	}

	if err := seedUsers(ctx, db, cfg.BcryptCost); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	theaterIDs, err := seedTheaters(ctx, db)
	if err != nil {
		log.Fatalf("seed theaters: %v", err)
	}
	movieIDs, err := seedMovies(ctx, db)
	if err != nil {
		log.Fatalf("seed movies: %v", err)
	}
	if err := seedShowtimes(ctx, db, movieIDs, theaterIDs); err != nil {
		log.Fatalf("seed showtimes: %v", err)
	}
	log.Println("seed complete")
}

func seedUsers(ctx context.Context, db *sql.DB, cost int) error {
	accounts := []struct {
		email, password, name, role string
	}{
		{"demo@example.com", "demo1234", "Demo User", "user"},
		{"admin@example.com", "admin1234", "Site Admin", "admin"},
	}
	for _, a := range accounts {
		hash, err := utils.HashPassword(a.password, cost)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO users (email, password_hash, name, role) VALUES (?, ?, ?, ?)`,
			a.email, hash, a.name, a.role)
		if err != nil {
			return err
		}
		log.Printf("user %s (%s)", a.email, a.role)
	}
	return nil
}

func seedTheaters(ctx context.Context, db *sql.DB) ([]uint64, error) {
	theaters := []struct {
		name, address, city, state, zip, phone string
		screens                                int
	}{
		{"Grand Cinema Downtown", "100 Main St", "Springfield", "IL", "62701", "217-555-0100", 3},
		{"Starlight Multiplex", "45 Harbor Ave", "Portland", "OR", "97201", "503-555-0145", 2},
	}
	ids := make([]uint64, 0, len(theaters))
	for _, t := range theaters {
		res, err := db.ExecContext(ctx,
			`INSERT INTO theaters (name, address, city, state, zip_code, phone, screens)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.name, t.address, t.city, t.state, t.zip, t.phone, t.screens)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		theaterID := uint64(id)
		ids = append(ids, theaterID)

		for screen := 1; screen <= t.screens; screen++ {
			if err := seedSeats(ctx, db, theaterID, screen); err != nil {
				return nil, err
			}
		}
		log.Printf("theater %q with %d screens", t.name, t.screens)
	}
	return ids, nil
}

func seedSeats(ctx context.Context, db *sql.DB, theaterID uint64, screen int) error {
	const q = `INSERT INTO seats
	             (theater_id, screen_number, row_label, seat_column, seat_number, seat_type, price_cents, is_aisle)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, row := range seatRows {
		for col := 1; col <= seatColumns; col++ {
			seatType := "regular"
			var priceCents any // NULL means "use the showtime base price"
			for _, p := range premiumRows {
				if row == p {
					seatType = "premium"
					priceCents = premiumPriceCents
				}
			}
			isAisle := col == 4 || col == 9
			seatNumber := fmt.Sprintf("%c%d", row, col)
			if _, err := db.ExecContext(ctx, q,
				theaterID, screen, string(row), col, seatNumber, seatType, priceCents, isAisle); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedMovies(ctx context.Context, db *sql.DB) ([]uint64, error) {
	movies := []struct {
		title, description, genre                  string
		duration                                   int
		rating                                     string
		score                                      float64
		language, director, releaseDate, status    string
	}{
		{"Echoes of Tomorrow", "A physicist receives messages from her future self warning of a global catastrophe.",
			"Sci-Fi", 128, "PG-13", 8.1, "English", "Maya Ortiz", "2026-07-18", "streaming_now"},
		{"The Last Lighthouse", "Two keepers on a remote island confront a storm that refuses to end.",
			"Thriller", 104, "R", 7.6, "English", "Declan Moore", "2026-08-01", "streaming_now"},
		{"Paper Planes", "An animated tale of a paper plane that carries a child's wish across the city.",
			"Animation", 92, "G", 7.9, "English", "Yuki Tanaka", "2026-06-05", "streaming_now"},
		{"Midnight Sonata", "A concert pianist loses her hearing and rebuilds her life one note at a time.",
			"Drama", 117, "PG", 8.4, "French", "Claire Dubois", "2026-10-09", "coming_soon"},
	}
	ids := make([]uint64, 0, len(movies))
	for _, m := range movies {
		res, err := db.ExecContext(ctx,
			`INSERT INTO movies (title, description, genre, duration_min, rating, score,
			                     language, director, release_date, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.title, m.description, m.genre, m.duration, m.rating, m.score,
			m.language, m.director, m.releaseDate, m.status)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint64(id))
		log.Printf("movie %q", m.title)
	}
	return ids, nil
}

func seedShowtimes(ctx context.Context, db *sql.DB, movieIDs, theaterIDs []uint64) error {
	seatsPerScreen := len(seatRows) * seatColumns
	slots := []int{14, 17, 20} // local show hours, stored as UTC for the demo
	prices := []int64{1000, 1200, 1250, 1500}

	start := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	const q = `INSERT INTO showtimes
	             (movie_id, theater_id, screen_number, starts_at, base_price_cents, total_seats, available_seats)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`

	n := 0
	for day := 0; day < 7; day++ {
		for mi, movieID := range movieIDs {
			theaterID := theaterIDs[mi%len(theaterIDs)]
			screen := mi%2 + 1
			for si, hour := range slots {
				startsAt := start.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
				price := prices[(mi+si)%len(prices)]
				if _, err := db.ExecContext(ctx, q,
					movieID, theaterID, screen, startsAt, price, seatsPerScreen, seatsPerScreen); err != nil {
					return err
				}
				n++
			}
		}
	}
	log.Printf("%d showtimes over the next 7 days", n)
	return nil
}
