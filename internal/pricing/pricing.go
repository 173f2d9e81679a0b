// Package pricing computes booking totals. All arithmetic is done in integer
// cents; callers convert to decimal dollars only when rendering a response or
// parsing a request body. The service fee and tax rates are fixed and are
// expressed in basis points so the math stays exact.
package pricing

import "math"

// Fee rates in basis points (1/100th of a percent).
const (
	ServiceFeeBasisPoints = 1000 // 10%
	TaxBasisPoints        = 800  // 8%
)

// Quote is the price breakdown for a set of seats. Total always equals
// Subtotal + ServiceFee + Tax, each term already rounded to the cent, so the
// figures shown to the client add up exactly.
type Quote struct {
	SubtotalCents   int64
	ServiceFeeCents int64
	TaxCents        int64
	TotalCents      int64
}

// Calculate returns the quote for the given per-seat prices in cents.
// The fee and the tax are each rounded half-up to the nearest cent.
func Calculate(seatPriceCents []int64) Quote {
	var subtotal int64
	for _, p := range seatPriceCents {
		subtotal += p
	}
	fee := applyBasisPoints(subtotal, ServiceFeeBasisPoints)
	tax := applyBasisPoints(subtotal, TaxBasisPoints)
	return Quote{
		SubtotalCents:   subtotal,
		ServiceFeeCents: fee,
		TaxCents:        tax,
		TotalCents:      subtotal + fee + tax,
	}
}

// applyBasisPoints multiplies an amount by a basis-point rate, rounding
// half-up to the nearest cent.
func applyBasisPoints(amountCents int64, bp int64) int64 {
	return (amountCents*bp + 5000) / 10000
}

// ParseAmount converts a decimal amount from a request body into cents,
// rounding to the nearest cent. Clients send figures like 41.30 which arrive
// as float64 through JSON decoding; rounding here absorbs the binary
// representation error before the exact-equality comparison against the
// stored total.
func ParseAmount(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Dollars converts cents to the decimal figure used at the API boundary.
func Dollars(cents int64) float64 {
	return float64(cents) / 100
}
