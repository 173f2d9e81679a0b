package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBreakdown(t *testing.T) {
	// Three seats at $10.00, $10.00, $15.00: subtotal $35.00, fee $3.50,
	// tax $2.80, total $41.30.
	q := Calculate([]int64{1000, 1000, 1500})

	assert.Equal(t, int64(3500), q.SubtotalCents)
	assert.Equal(t, int64(350), q.ServiceFeeCents)
	assert.Equal(t, int64(280), q.TaxCents)
	assert.Equal(t, int64(4130), q.TotalCents)
}

func TestCalculateEmpty(t *testing.T) {
	q := Calculate(nil)
	assert.Equal(t, int64(0), q.SubtotalCents)
	assert.Equal(t, int64(0), q.TotalCents)
}

func TestCalculateRoundsHalfUp(t *testing.T) {
	// Subtotal 1005: fee 100.5 -> 101, tax 80.4 -> 80.
	q := Calculate([]int64{1005})
	assert.Equal(t, int64(101), q.ServiceFeeCents)
	assert.Equal(t, int64(80), q.TaxCents)
	assert.Equal(t, q.SubtotalCents+q.ServiceFeeCents+q.TaxCents, q.TotalCents)
}

func TestTotalAlwaysSumsRoundedTerms(t *testing.T) {
	cases := [][]int64{
		{1},
		{1, 1, 1},
		{999},
		{1250, 1500},
		{333, 333, 334},
	}
	for _, prices := range cases {
		q := Calculate(prices)
		assert.Equal(t, q.SubtotalCents+q.ServiceFeeCents+q.TaxCents, q.TotalCents,
			"prices %v", prices)
	}
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, int64(4130), ParseAmount(41.30))
	assert.Equal(t, int64(4129), ParseAmount(41.29))
	assert.Equal(t, int64(4131), ParseAmount(41.31))
	// 0.1+0.2 style float noise must not shift the cent value.
	assert.Equal(t, int64(30), ParseAmount(0.1+0.2))
	assert.Equal(t, int64(0), ParseAmount(0))
}

func TestDollars(t *testing.T) {
	assert.Equal(t, 41.30, Dollars(4130))
	assert.Equal(t, 0.01, Dollars(1))
}
