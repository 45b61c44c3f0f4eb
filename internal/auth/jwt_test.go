package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager("test-secret-at-least-32-characters", 15*time.Minute, 720*time.Hour)
}

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1234", "alice@example.com", "customer")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1234", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
	assert.Equal(t, "epi-shop", claims.Issuer)
}

func TestJWTManager_RefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-1234")
	require.NoError(t, err)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1234", claims.UserID)
}

func TestJWTManager_ValidateAccessToken_WrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager("a-completely-different-secret-value", 15*time.Minute, 720*time.Hour)

	token, err := m.GenerateAccessToken("user-1234", "alice@example.com", "customer")
	require.NoError(t, err)

	claims, err := other.ValidateAccessToken(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestJWTManager_ValidateAccessToken_Expired(t *testing.T) {
	m := NewJWTManager("test-secret-at-least-32-characters", -time.Minute, 720*time.Hour)

	token, err := m.GenerateAccessToken("user-1234", "alice@example.com", "customer")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestJWTManager_ValidateAccessToken_Garbage(t *testing.T) {
	m := newTestManager()

	claims, err := m.ValidateAccessToken("not-a-jwt")
	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestJWTManager_RefreshTokenRejectedAsAccessClaims(t *testing.T) {
	m := newTestManager()

	refresh, err := m.GenerateRefreshToken("user-1234")
	require.NoError(t, err)

	// A refresh token parses as access claims but carries no email or role.
	claims, err := m.ValidateAccessToken(refresh)
	require.NoError(t, err)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Role)
}

func TestHashToken_Deterministic(t *testing.T) {
	h1 := HashToken("some-token")
	h2 := HashToken("some-token")
	h3 := HashToken("other-token")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
