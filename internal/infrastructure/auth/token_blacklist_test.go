package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_JTI(t *testing.T) {
	ctx := context.Background()

	t.Run("blacklisted JTI is reported", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		err := bl.AddToBlacklist(ctx, "jti-1", time.Minute)
		require.NoError(t, err)

		blacklisted, err := bl.IsBlacklisted(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, blacklisted)
	})

	t.Run("unknown JTI is not blacklisted", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		blacklisted, err := bl.IsBlacklisted(ctx, "jti-unknown")
		require.NoError(t, err)
		assert.False(t, blacklisted)
	})

	t.Run("expired entries fall out of the blacklist", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		err := bl.AddToBlacklist(ctx, "jti-2", -time.Second)
		require.NoError(t, err)

		blacklisted, err := bl.IsBlacklisted(ctx, "jti-2")
		require.NoError(t, err)
		assert.False(t, blacklisted)
	})
}

func TestInMemoryTokenBlacklist_AdminInvalidation(t *testing.T) {
	ctx := context.Background()

	t.Run("tokens issued before invalidation are rejected", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		issuedAt := time.Now().Add(-time.Hour)
		err := bl.AddAdminTokensToBlacklist(ctx, "admin-1", time.Hour)
		require.NoError(t, err)

		invalidated, err := bl.IsAdminTokenInvalidated(ctx, "admin-1", issuedAt)
		require.NoError(t, err)
		assert.True(t, invalidated)
	})

	t.Run("tokens issued after invalidation remain valid", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		err := bl.AddAdminTokensToBlacklist(ctx, "admin-1", time.Hour)
		require.NoError(t, err)

		invalidated, err := bl.IsAdminTokenInvalidated(ctx, "admin-1", time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, invalidated)
	})

	t.Run("admins without invalidation are unaffected", func(t *testing.T) {
		bl := NewInMemoryTokenBlacklist()

		invalidated, err := bl.IsAdminTokenInvalidated(ctx, "admin-2", time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.False(t, invalidated)
	})
}

func TestRedisTokenBlacklist_Keys(t *testing.T) {
	bl := &RedisTokenBlacklist{keyPrefix: "token:blacklist:"}

	assert.Equal(t, "token:blacklist:jti:abc", bl.jtiKey("abc"))
	assert.Equal(t, "token:blacklist:admin:admin-1", bl.adminKey("admin-1"))
}
