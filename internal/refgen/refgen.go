// Package refgen produces short human-shareable references such as booking
// references ("BK-A3F9D2") and mock payment references ("MOCK-PAY-A3F9D2").
// References are random, not sequential, so database IDs never leak to users
// and a reference can be read out over the phone.
package refgen

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// DefaultAttempts bounds the check-and-regenerate loop. Three random bytes
// give 16.7M combinations, so hitting the cap means something is badly wrong
// with the namespace, not bad luck.
const DefaultAttempts = 5

// ErrExhausted is returned when every generated candidate collided with an
// existing reference within the attempt budget.
var ErrExhausted = errors.New("refgen: exhausted unique reference attempts")

// TakenFunc reports whether a candidate reference is already in use.
type TakenFunc func(ctx context.Context, ref string) (bool, error)

// Generator builds prefixed references, e.g. New("BK").Next(...) -> "BK-1F03AC".
type Generator struct {
	prefix   string
	attempts int
}

// New returns a generator for the given domain prefix (without the trailing
// dash) using the default attempt budget.
func New(prefix string) *Generator {
	return &Generator{prefix: prefix, attempts: DefaultAttempts}
}

// Next generates a reference that the taken callback reports as unused.
// When taken is nil the first candidate is returned without a uniqueness
// probe; payment references rely on collision resistance alone.
func (g *Generator) Next(ctx context.Context, taken TakenFunc) (string, error) {
	for i := 0; i < g.attempts; i++ {
		ref, err := g.candidate()
		if err != nil {
			return "", err
		}
		if taken == nil {
			return ref, nil
		}
		used, err := taken(ctx, ref)
		if err != nil {
			return "", err
		}
		if !used {
			return ref, nil
		}
	}
	return "", ErrExhausted
}

// candidate returns prefix + "-" + 6 uppercase hex characters.
func (g *Generator) candidate() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("refgen: read random bytes: %w", err)
	}
	return g.prefix + "-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
