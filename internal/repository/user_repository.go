package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
)

// ErrEmailTaken is returned by UserRepo.Create when the email is already
// registered. The unique index on users.email is the authority, so a race
// between two registrations surfaces as this error rather than a 500.
var ErrEmailTaken = errors.New("email already registered")

// User mirrors the users table. PasswordHash never leaves this layer in
// responses.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	Role         string
	CreatedAt    time.Time
}

// UserRepo handles account rows for registration and login.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, name, phone, role, created_at`

func scanUser(scan func(dest ...any) error) (*User, error) {
	var u User
	var phone sql.NullString
	err := scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &phone, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Phone = nullable(phone)
	return &u, nil
}

// ByEmail fetches a user by normalized email, or booking.ErrNotFound.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`
	u, err := scanUser(func(dest ...any) error {
		return r.db.QueryRowContext(ctx, q, email).Scan(dest...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	return u, err
}

// ByID fetches a user by id, or booking.ErrNotFound.
func (r *UserRepo) ByID(ctx context.Context, id uint64) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
	u, err := scanUser(func(dest ...any) error {
		return r.db.QueryRowContext(ctx, q, id).Scan(dest...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	return u, err
}

// Create inserts a new account and fills in the generated id and timestamp.
func (r *UserRepo) Create(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = "user"
	}
	const q = `INSERT INTO users (email, password_hash, name, phone, role) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role)
	if err != nil {
		// MySQL duplicate-key error on the email unique index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM users WHERE id = ?`, u.ID).Scan(&u.CreatedAt)
}
