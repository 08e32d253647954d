package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", 15*time.Minute, 24*time.Hour, "relaychat-test")
	require.NoError(t, err)
	return m
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager("", time.Minute, time.Hour, "relaychat-test")
	assert.Error(t, err)
}

func TestManager_GenerateAndValidate(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.GenerateTokenPair("user-1", "alice@example.com", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Greater(t, pair.RefreshExpiresAt, pair.AccessExpiresAt)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, TypeAccess, claims.Type)
}

func TestManager_RefreshTokens(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.GenerateTokenPair("user-1", "alice@example.com", "alice")
	require.NoError(t, err)

	refreshed, err := m.RefreshTokens(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	// An access token must not be accepted as a refresh token.
	_, err = m.RefreshTokens(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_AccessTypeRequired(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.GenerateTokenPair("user-1", "", "alice")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_ExpiredToken(t *testing.T) {
	m, err := NewManager("test-secret", -time.Minute, -time.Minute, "relaychat-test")
	require.NoError(t, err)

	pair, err := m.GenerateTokenPair("user-1", "", "alice")
	require.NoError(t, err)

	_, err = m.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestManager_Revocation(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.GenerateTokenPair("user-1", "", "alice")
	require.NoError(t, err)

	m.RevokeUserTokens("user-1")

	_, err = m.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrRevokedToken)

	// Other users are unaffected.
	other, err := m.GenerateTokenPair("user-2", "", "bob")
	require.NoError(t, err)
	_, err = m.ValidateToken(other.AccessToken)
	assert.NoError(t, err)
}

func TestManager_TamperedToken(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.GenerateTokenPair("user-1", "", "alice")
	require.NoError(t, err)

	otherManager, err := NewManager("other-secret", time.Minute, time.Hour, "relaychat-test")
	require.NoError(t, err)

	_, err = otherManager.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
