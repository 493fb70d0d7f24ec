package internal

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRefreshValue(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		value, err := NewRefreshValue()
		require.NoError(t, err)
		require.Len(t, value, RefreshValueLen)

		raw, err := hex.DecodeString(value)
		require.NoError(t, err)
		require.Len(t, raw, refreshSecretSize)

		require.False(t, seen[value], "generated values must not repeat")
		seen[value] = true
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("some-token-value")
	require.Len(t, h, 64)
	require.Equal(t, h, HashToken("some-token-value"))
	require.NotEqual(t, h, HashToken("some-other-value"))
}
