package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMaker_GenerateAndParseAccessToken(t *testing.T) {
	maker := NewMaker(testSecret, 15*time.Minute, 0)

	tests := []struct {
		name   string
		userID string
		email  string
		role   string
	}{
		{name: "admin", userID: "1", email: "admin@suscridash.cl", role: "admin"},
		{name: "business", userID: "2", email: "empresa@ejemplo.cl", role: "business"},
		{name: "customer", userID: "3", email: "cliente@ejemplo.cl", role: "customer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiresAt, err := maker.GenerateAccessToken(tt.userID, tt.email, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Second)

			claims, err := maker.ParseAccessToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID)
			assert.Equal(t, tt.email, claims.Email)
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
		})
	}
}

func TestMaker_AccessTokenExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	maker := NewMaker(testSecret, time.Hour, 0).WithClock(fixedClock(issuedAt))

	token, _, err := maker.GenerateAccessToken("1", "admin@suscridash.cl", "admin")
	require.NoError(t, err)

	maker.WithClock(fixedClock(issuedAt.Add(59 * time.Minute)))
	claims, err := maker.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)

	maker.WithClock(fixedClock(issuedAt.Add(61 * time.Minute)))
	claims, err = maker.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
	assert.Nil(t, claims)
}

func TestMaker_ParseAccessToken_InvalidTokens(t *testing.T) {
	maker := NewMaker(testSecret, 15*time.Minute, 0)

	validToken, _, err := maker.GenerateAccessToken("1", "user@domain.com", "customer")
	require.NoError(t, err)
	refreshToken, err := maker.GenerateRefreshToken("1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "wrong secret key", token: createTokenWithWrongSecret(t)},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "refresh token used as access", token: refreshToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseAccessToken(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.NotErrorIs(t, err, ErrTokenExpired)
			assert.Nil(t, claims)
		})
	}
}

func TestMaker_RefreshToken(t *testing.T) {
	issuedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	maker := NewMaker(testSecret, 0, 0).WithClock(fixedClock(issuedAt))

	token, err := maker.GenerateRefreshToken("42")
	require.NoError(t, err)

	claims, err := maker.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, issuedAt.Add(DefaultRefreshTTL), claims.ExpiresAt.Time.UTC())

	access, _, err := maker.GenerateAccessToken("42", "a@b.cl", "customer")
	require.NoError(t, err)
	_, err = maker.ParseRefreshToken(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	maker.WithClock(fixedClock(issuedAt.Add(DefaultRefreshTTL + time.Minute)))
	_, err = maker.ParseRefreshToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestMaker_DifferentSecretKeys(t *testing.T) {
	maker1 := NewMaker("first_secret_key", 15*time.Minute, 0)
	maker2 := NewMaker("different_secret_key", 15*time.Minute, 0)

	token, _, err := maker1.GenerateAccessToken("1", "a@b.cl", "admin")
	require.NoError(t, err)

	claims, err := maker2.ParseAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.Nil(t, claims)

	claims, err = maker1.ParseAccessToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func createTokenWithWrongSecret(t *testing.T) string {
	wrongMaker := NewMaker("wrong_secret_key", 15*time.Minute, 0)
	token, _, err := wrongMaker.GenerateAccessToken("1", "a@b.cl", "customer")
	require.NoError(t, err)
	return token
}
