package refgen

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFormat(t *testing.T) {
	g := New("BK")
	ref, err := g.Next(context.Background(), nil)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^BK-[0-9A-F]{6}$`), ref)
}

func TestNextPrefixes(t *testing.T) {
	ref, err := New("MOCK-PAY").Next(context.Background(), nil)
	require.NoError(t, err)
	assert.Regexp(t, `^MOCK-PAY-[0-9A-F]{6}$`, ref)
}

func TestNextUniquenessOverMany(t *testing.T) {
	g := New("BK")
	seen := make(map[string]bool, 10000)
	taken := func(_ context.Context, ref string) (bool, error) {
		return seen[ref], nil
	}
	for i := 0; i < 10000; i++ {
		ref, err := g.Next(context.Background(), taken)
		require.NoError(t, err)
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestNextExhaustsAttempts(t *testing.T) {
	g := New("BK")
	calls := 0
	everythingTaken := func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}
	_, err := g.Next(context.Background(), everythingTaken)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, DefaultAttempts, calls)
}

func TestNextPropagatesProbeError(t *testing.T) {
	g := New("BK")
	probeErr := assert.AnError
	_, err := g.Next(context.Background(), func(context.Context, string) (bool, error) {
		return false, probeErr
	})
	assert.ErrorIs(t, err, probeErr)
}
