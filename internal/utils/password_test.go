package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("demo1234", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "demo1234", hash)

	assert.True(t, VerifyPassword(hash, "demo1234"))
	assert.False(t, VerifyPassword(hash, "demo1235"))
	assert.False(t, VerifyPassword("not-a-hash", "demo1234"))
}
