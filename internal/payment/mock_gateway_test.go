package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeReturnsReceipt(t *testing.T) {
	g := NewMockGateway(0)
	receipt, err := g.Charge(context.Background(), Request{
		BookingID:        7,
		BookingReference: "BK-A3F9D2",
		UserID:           42,
		AmountCents:      4130,
		Method:           "credit_card",
		CardNumber:       "4242424242424242",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^MOCK-PAY-[0-9A-F]{6}$`, receipt.Reference)
	assert.Equal(t, int64(4130), receipt.AmountCents)
	assert.Equal(t, "credit_card", receipt.Method)
	assert.False(t, receipt.ProcessedAt.IsZero())
}

func TestChargeHonorsDelay(t *testing.T) {
	g := NewMockGateway(50 * time.Millisecond)
	start := time.Now()
	_, err := g.Charge(context.Background(), Request{AmountCents: 100})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestChargeAbortsOnContextCancel(t *testing.T) {
	g := NewMockGateway(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Charge(ctx, Request{AmountCents: 100})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaskCard(t *testing.T) {
	assert.Equal(t, "-", MaskCard(""))
	assert.Equal(t, "****", MaskCard("1234"))
	assert.Equal(t, "************4242", MaskCard("4242424242424242"))
}
