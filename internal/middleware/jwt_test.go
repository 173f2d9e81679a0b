package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpass/movie-ticket-booking/internal/utils"
)

const testSecret = "test-secret"

func request(t *testing.T, token string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "user@example.com", "user", 60)
	require.NoError(t, err)

	rec, c := request(t, tok.Token, JWTAuth(testSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), c.Get("user_id"))
	assert.Equal(t, "user@example.com", c.Get("email"))
	assert.Equal(t, "user", c.Get("role"))
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _ := request(t, "", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthGarbageToken(t *testing.T) {
	rec, _ := request(t, "not-a-jwt", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 42, "user@example.com", "user", 60)
	require.NoError(t, err)

	rec, _ := request(t, tok.Token, JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "user@example.com", "user", -1)
	require.NoError(t, err)

	rec, _ := request(t, tok.Token, JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 1, "admin@example.com", "admin", 60)
	require.NoError(t, err)

	rec, _ := request(t, tok.Token, JWTAuth(testSecret), RequireAdmin())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminRejectsUser(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "user@example.com", "user", 60)
	require.NoError(t, err)

	rec, _ := request(t, tok.Token, JWTAuth(testSecret), RequireAdmin())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminRejectsMissingRole(t *testing.T) {
	rec, _ := request(t, "", RequireAdmin())
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
