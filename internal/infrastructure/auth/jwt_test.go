package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/roads-authority/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-that-is-long-enough",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "vehicle-reg-backend",
	})
}

func TestJWTService_GenerateAccessToken(t *testing.T) {
	t.Run("generates a valid signed token", func(t *testing.T) {
		svc := newTestJWTService()

		token, expiresAt, err := svc.GenerateAccessToken(GenerateTokenInput{
			AdminID: "admin-1",
			Email:   "clerk@ra.na",
			Name:    "Registration Clerk",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("rejects missing admin ID", func(t *testing.T) {
		svc := newTestJWTService()

		_, _, err := svc.GenerateAccessToken(GenerateTokenInput{Email: "clerk@ra.na"})

		assert.ErrorIs(t, err, ErrMissingAdminID)
	})
}

func TestJWTService_ValidateAccessToken(t *testing.T) {
	t.Run("round-trips claims", func(t *testing.T) {
		svc := newTestJWTService()

		token, _, err := svc.GenerateAccessToken(GenerateTokenInput{
			AdminID: "admin-1",
			Email:   "clerk@ra.na",
			Name:    "Registration Clerk",
		})
		require.NoError(t, err)

		claims, err := svc.ValidateAccessToken(token)

		require.NoError(t, err)
		assert.Equal(t, "admin-1", claims.AdminID)
		assert.Equal(t, "clerk@ra.na", claims.Email)
		assert.Equal(t, "Registration Clerk", claims.Name)
		assert.Equal(t, TokenTypeAccess, claims.TokenType)
		assert.Equal(t, "vehicle-reg-backend", claims.Issuer)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		svc := newTestJWTService()

		_, err := svc.ValidateAccessToken("not-a-token")

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects tokens signed with a different secret", func(t *testing.T) {
		svc := newTestJWTService()
		other := NewJWTService(config.JWTConfig{
			Secret:                "a-completely-different-secret-value",
			AccessTokenExpiration: 15 * time.Minute,
			Issuer:                "vehicle-reg-backend",
		})

		token, _, err := other.GenerateAccessToken(GenerateTokenInput{AdminID: "admin-1"})
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)

		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		svc := NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-that-is-long-enough",
			AccessTokenExpiration: -time.Minute,
			Issuer:                "vehicle-reg-backend",
		})

		token, _, err := svc.GenerateAccessToken(GenerateTokenInput{AdminID: "admin-1"})
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(token)

		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects non-access token types", func(t *testing.T) {
		svc := newTestJWTService()

		now := time.Now()
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "jti-1",
				Subject:   "admin-1",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			AdminID:   "admin-1",
			TokenType: TokenType("refresh"),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("test-secret-key-that-is-long-enough"))
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(signed)

		assert.ErrorIs(t, err, ErrInvalidTokenType)
	})

	t.Run("rejects tokens without admin identity", func(t *testing.T) {
		svc := newTestJWTService()

		now := time.Now()
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "jti-2",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			TokenType: TokenTypeAccess,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("test-secret-key-that-is-long-enough"))
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(signed)

		assert.ErrorIs(t, err, ErrMissingAdminID)
	})

	t.Run("rejects tokens signed with the none algorithm", func(t *testing.T) {
		svc := newTestJWTService()

		now := time.Now()
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "jti-3",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			AdminID:   "admin-1",
			TokenType: TokenTypeAccess,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateAccessToken(signed)

		assert.Error(t, err)
	})
}

func TestClaims_Actor(t *testing.T) {
	t.Run("prefers the email address", func(t *testing.T) {
		c := &Claims{AdminID: "admin-1", Email: "clerk@ra.na"}
		assert.Equal(t, "clerk@ra.na", c.Actor())
	})

	t.Run("falls back to the admin ID", func(t *testing.T) {
		c := &Claims{AdminID: "admin-1"}
		assert.Equal(t, "admin-1", c.Actor())
	})
}

func TestClaims_TimeHelpers(t *testing.T) {
	t.Run("returns zero values for empty claims", func(t *testing.T) {
		c := &Claims{}

		assert.True(t, c.GetIssuedAtTime().IsZero())
		assert.True(t, c.GetExpiresAtTime().IsZero())
		assert.Equal(t, time.Duration(0), c.GetRemainingTTL())
	})

	t.Run("computes remaining TTL", func(t *testing.T) {
		c := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
			},
		}

		ttl := c.GetRemainingTTL()
		assert.Greater(t, ttl, 9*time.Minute)
		assert.LessOrEqual(t, ttl, 10*time.Minute)
	})

	t.Run("expired tokens have zero TTL", func(t *testing.T) {
		c := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}

		assert.Equal(t, time.Duration(0), c.GetRemainingTTL())
	})
}
