package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hash)

	require.True(t, VerifyPassword(hash, "s3cret-pass"))
	require.False(t, VerifyPassword(hash, "wrong"))
	require.False(t, VerifyPassword("not-a-hash", "s3cret-pass"))
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = GenerateToken(0)
	require.Error(t, err)
}
