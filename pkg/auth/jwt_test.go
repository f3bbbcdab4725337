package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestJWTValidator_ValidateToken(t *testing.T) {
	validator, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256", SecretKey: testSecret, Issuer: "mindgraph"})
	require.NoError(t, err)

	generator, err := NewJWTGenerator(testSecret, "mindgraph", nil, time.Hour)
	require.NoError(t, err)

	t.Run("owner is the email claim", func(t *testing.T) {
		token, err := generator.GenerateToken("u-1", "alice@example.com", nil)
		require.NoError(t, err)

		claims, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", claims.Owner())
		assert.Equal(t, "u-1", claims.UserID)
	})

	t.Run("owner falls back to the subject", func(t *testing.T) {
		token, err := generator.GenerateToken("u-2", "", nil)
		require.NoError(t, err)

		claims, err := validator.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u-2", claims.Owner())
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := validator.ValidateToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := NewJWTGenerator(testSecret, "mindgraph", nil, time.Minute)
		require.NoError(t, err)
		expired.now = func() time.Time { return time.Now().Add(-time.Hour) }

		token, err := expired.GenerateToken("u-1", "alice@example.com", nil)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTGenerator("other-secret", "mindgraph", nil, time.Hour)
		require.NoError(t, err)
		token, err := other.GenerateToken("u-1", "alice@example.com", nil)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTGenerator(testSecret, "someone-else", nil, time.Hour)
		require.NoError(t, err)
		token, err := other.GenerateToken("u-1", "alice@example.com", nil)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("none algorithm is rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = validator.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestNewJWTValidator_Config(t *testing.T) {
	tests := []struct {
		name    string
		config  JWTConfig
		wantErr bool
	}{
		{name: "hs256", config: JWTConfig{SigningMethod: "HS256", SecretKey: "s"}},
		{name: "default method", config: JWTConfig{SecretKey: "s"}},
		{name: "hs256 without secret", config: JWTConfig{SigningMethod: "HS256"}, wantErr: true},
		{name: "rs256 without key", config: JWTConfig{SigningMethod: "RS256"}, wantErr: true},
		{name: "unknown method", config: JWTConfig{SigningMethod: "ES512", SecretKey: "s"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTValidator(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok, "third request in the window is refused")

	ok, err = limiter.Allow(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ok, "keys are limited independently")

	now = now.Add(61 * time.Second)
	ok, err = limiter.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok, "window slides")

	require.NoError(t, limiter.Reset(ctx, "alice"))
	ok, _ = limiter.Allow(ctx, "alice")
	assert.True(t, ok)

	unlimited := NewOwnerRateLimiter(0)
	for i := 0; i < 5; i++ {
		ok, _ := unlimited.Allow(ctx, "alice")
		assert.True(t, ok)
	}
}
