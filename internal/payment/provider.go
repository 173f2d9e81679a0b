// Package payment abstracts the payment gateway behind a small interface so
// the booking flow does not care whether it talks to a real processor or the
// in-process mock. Only the mock is shipped; a real gateway implementation
// would satisfy the same Provider interface.
package payment

import (
	"context"
	"time"
)

// Request carries everything the gateway needs to charge for a booking.
// Card fields are optional and never validated by the mock.
type Request struct {
	BookingID        uint64
	BookingReference string
	UserID           uint64
	AmountCents      int64
	Method           string
	CardNumber       string
	ExpiryDate       string
}

// Receipt is the gateway's answer to a successful charge.
type Receipt struct {
	Reference   string    // gateway transaction reference, e.g. MOCK-PAY-A3F9D2
	Method      string    // echo of the payment method used
	AmountCents int64     // amount actually charged
	ProcessedAt time.Time // when the charge settled (UTC)
}

// Provider is the capability the booking core depends on. Charge blocks for
// the duration of the (real or simulated) gateway round-trip and must honor
// context cancellation.
type Provider interface {
	Charge(ctx context.Context, req Request) (Receipt, error)
}
