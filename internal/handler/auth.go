package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
	"github.com/screenpass/movie-ticket-booking/internal/config"
	"github.com/screenpass/movie-ticket-booking/internal/repository"
	"github.com/screenpass/movie-ticket-booking/internal/utils"
)

// AuthHandler serves registration, login and the current-user endpoint.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users}
}

type registerReq struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Phone    *string `json:"phone"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userView is the account shape returned to clients. The password hash never
// appears here.
type userView struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type authData struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

func viewOf(u *repository.User) userView {
	return userView{
		ID: u.ID, Email: u.Email, Name: u.Name, Phone: u.Phone,
		Role: u.Role, CreatedAt: u.CreatedAt,
	}
}

// Register creates an account and returns it with a signed token, so the
// client is logged in immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fail(c, http.StatusBadRequest, "email, password and name are required")
	}
	if len(req.Password) < 6 {
		return fail(c, http.StatusBadRequest, "password must be at least 6 characters")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return renderError(c, err)
	}
	u := &repository.User{Email: req.Email, PasswordHash: hash, Name: req.Name, Phone: req.Phone}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return fail(c, http.StatusConflict, "an account with this email already exists")
		}
		return renderError(c, err)
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusCreated, "registration successful", authData{User: viewOf(u), Token: tok.Token})
}

// Login verifies credentials and returns a fresh token. Unknown email and
// wrong password produce the same message.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.ByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid email or password")
		}
		return renderError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid email or password")
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "login successful", authData{User: viewOf(u), Token: tok.Token})
}

// AdminLogin is the back-office login: same flow as Login but only accounts
// with the admin role get a token.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.ByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid email or password")
		}
		return renderError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid email or password")
	}
	if u.Role != "admin" {
		return fail(c, http.StatusForbidden, "admin access required")
	}

	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "login successful", authData{User: viewOf(u), Token: tok.Token})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.ByID(ctx, currentUserID(c))
	if err != nil {
		return renderError(c, err)
	}
	return respond(c, http.StatusOK, "", viewOf(u))
}
