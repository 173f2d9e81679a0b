package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the booking core. Handlers translate these into HTTP
// statuses: ErrNotFound and ErrForbidden both become 404 (ownership
// mismatches must not reveal that the booking exists), ErrUnavailable
// becomes 500.
var (
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("temporarily unavailable")
)

// ValidationError marks malformed or unbookable input: bad seat ids, past
// showtimes, amount mismatches. Mapped to HTTP 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Invalidf builds a ValidationError with a formatted reason.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports the seats that lost a reservation race. The list
// holds human seat labels so the client can trim its selection and retry.
// Mapped to HTTP 409.
type ConflictError struct {
	SeatNumbers []string
}

func (e *ConflictError) Error() string {
	return "seats already booked: " + strings.Join(e.SeatNumbers, ", ")
}
