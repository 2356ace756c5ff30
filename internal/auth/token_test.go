package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("test-secret", 5)

	token, expiresAt, err := tm.GenerateToken("op-1", "client-1")
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", claims.SubjectID)
	assert.Equal(t, "client-1", claims.ClientID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := NewTokenManager("secret-a", 5).GenerateToken("op-1", "")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 5).ParseToken(token)
	require.Error(t, err)
}

func TestAPIKeyHashing(t *testing.T) {
	t.Parallel()

	hashed, err := HashAPIKey("device-key-123", 4)
	require.NoError(t, err)

	require.NoError(t, CompareAPIKey(hashed, "device-key-123"))
	require.Error(t, CompareAPIKey(hashed, "wrong-key"))
}
