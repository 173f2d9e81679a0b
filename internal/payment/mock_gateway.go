package payment

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/screenpass/movie-ticket-booking/internal/refgen"
)

// MockGateway simulates an external payment processor. It waits a fixed
// delay (a stand-in for the gateway round-trip) and then returns a
// MOCK-PAY-XXXXXX reference. No card data is validated or stored; card
// numbers are masked before they ever reach a log line.
type MockGateway struct {
	delay time.Duration
	refs  *refgen.Generator
}

// NewMockGateway builds a mock provider with the given processing delay.
// A zero or negative delay disables the artificial wait, which is what the
// tests use.
func NewMockGateway(delay time.Duration) *MockGateway {
	return &MockGateway{
		delay: delay,
		refs:  refgen.New("MOCK-PAY"),
	}
}

// Charge simulates a gateway charge. Payment references are generated
// without a uniqueness probe; collision resistance of the random source is
// enough for mock transaction IDs.
func (g *MockGateway) Charge(ctx context.Context, req Request) (Receipt, error) {
	log.Printf("mock-payment: charging booking=%s user=%d amount_cents=%d method=%s card=%s",
		req.BookingReference, req.UserID, req.AmountCents, req.Method, MaskCard(req.CardNumber))

	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		}
	}

	ref, err := g.refs.Next(ctx, nil)
	if err != nil {
		return Receipt{}, err
	}
	log.Printf("mock-payment: settled booking=%s payment_ref=%s", req.BookingReference, ref)
	return Receipt{
		Reference:   ref,
		Method:      req.Method,
		AmountCents: req.AmountCents,
		ProcessedAt: time.Now().UTC(),
	}, nil
}

// MaskCard hides all but the last four digits of a card number. Empty input
// yields "-" so log lines stay grep-friendly.
func MaskCard(card string) string {
	if card == "" {
		return "-"
	}
	if len(card) <= 4 {
		return strings.Repeat("*", len(card))
	}
	return strings.Repeat("*", len(card)-4) + card[len(card)-4:]
}
