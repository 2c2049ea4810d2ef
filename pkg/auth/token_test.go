package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", 0)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc, err := NewTokenService("test-secret", 0)
	require.NoError(t, err)

	token, err := svc.Issue("user-1", RoleInvestigator)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, RoleInvestigator, claims.Role)

	// Default 24h validity window
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, DefaultTokenTTL, ttl)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc, err := NewTokenService("test-secret", time.Millisecond)
	require.NoError(t, err)

	token, err := svc.Issue("user-1", RoleAdmin)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	issuer, err := NewTokenService("secret-a", 0)
	require.NoError(t, err)
	verifier, err := NewTokenService("secret-b", 0)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1", RoleAdmin)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc, err := NewTokenService("test-secret", 0)
	require.NoError(t, err)

	_, err = svc.Verify("not.a.token")
	assert.Error(t, err)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("p1", bcryptTestCost)
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash)

	assert.True(t, CheckPassword(hash, "p1"))
	assert.False(t, CheckPassword(hash, "p2"))
}

// bcryptTestCost keeps password tests fast
const bcryptTestCost = 4
