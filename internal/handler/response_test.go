package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpass/movie-ticket-booking/internal/booking"
)

func testContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRenderErrorValidation(t *testing.T) {
	c, rec := testContext(t)
	require.NoError(t, renderError(c, booking.Invalidf("cannot book seats for past showtimes")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "cannot book seats for past showtimes", body["message"])
}

func TestRenderErrorConflictListsSeats(t *testing.T) {
	c, rec := testContext(t)
	err := &booking.ConflictError{SeatNumbers: []string{"A1", "C3"}}
	require.NoError(t, renderError(c, err))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, []any{"A1", "C3"}, body["unavailableSeats"])
}

func TestRenderErrorNotFound(t *testing.T) {
	c, rec := testContext(t)
	require.NoError(t, renderError(c, booking.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderErrorForbiddenHidesExistence(t *testing.T) {
	// Ownership mismatches must be indistinguishable from missing bookings.
	c, rec := testContext(t)
	require.NoError(t, renderError(c, booking.ErrForbidden))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "not found", body["message"])
}

func TestRenderErrorUnavailable(t *testing.T) {
	c, rec := testContext(t)
	wrapped := errors.Join(booking.ErrUnavailable, errors.New("refgen gave up"))
	require.NoError(t, renderError(c, wrapped))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRenderErrorUnknown(t *testing.T) {
	c, rec := testContext(t)
	require.NoError(t, renderError(c, errors.New("broken pipe")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	// Internal details never reach the client.
	assert.Equal(t, "internal server error", body["message"])
}

func TestRespondEnvelope(t *testing.T) {
	c, rec := testContext(t)
	require.NoError(t, respond(c, http.StatusCreated, "booking created successfully", map[string]int{"id": 7}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "booking created successfully", body["message"])
	assert.Equal(t, map[string]any{"id": float64(7)}, body["data"])
}

func TestRespondOmitsEmptyFields(t *testing.T) {
	c, rec := testContext(t)
	require.NoError(t, respond(c, http.StatusOK, "", nil))

	body := decodeEnvelope(t, rec)
	_, hasMessage := body["message"]
	_, hasData := body["data"]
	assert.False(t, hasMessage)
	assert.False(t, hasData)
}
