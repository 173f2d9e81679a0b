package utils // helpers for token issuing and password hashing

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT together with its expiry. The API is
// stateless: there is no refresh token, clients log in again when the access
// token expires.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an HS256 JWT carrying the identity claims the
// middleware reads back: userId, email and role.
func NewAccessToken(secret string, userID uint64, email, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"userId": userID,
		"email":  email,
		"role":   role,
		"exp":    exp.Unix(),
		"iat":    now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates a signed token and returns its identity claims.
// Only HMAC-signed tokens are accepted.
func ParseAccessToken(secret, raw string) (userID uint64, email, role string, err error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, "", "", jwt.ErrTokenSignatureInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", "", jwt.ErrTokenInvalidClaims
	}
	// JSON numbers decode as float64.
	id, ok := claims["userId"].(float64)
	if !ok || id <= 0 {
		return 0, "", "", jwt.ErrTokenInvalidClaims
	}
	email, _ = claims["email"].(string)
	role, _ = claims["role"].(string)
	return uint64(id), email, role, nil
}
