//go:build integration

package insurercache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coverbook/pkg/testutil/containers"
)

func TestRedisCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	cache := New(rc.Client, time.Minute)

	t.Run("miss on unknown insurer", func(t *testing.T) {
		_, found, err := cache.Get(ctx, "acme")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "acme", true))

		authorized, found, err := cache.Get(ctx, "acme")
		require.NoError(t, err)
		assert.True(t, found)
		assert.True(t, authorized)
	})

	t.Run("overwrite with revocation", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "acme", false))

		authorized, found, err := cache.Get(ctx, "acme")
		require.NoError(t, err)
		assert.True(t, found)
		assert.False(t, authorized)
	})

	t.Run("entries expire with the ttl", func(t *testing.T) {
		short := New(rc.Client, 100*time.Millisecond)
		require.NoError(t, short.Set(ctx, "ephemeral", true))

		time.Sleep(200 * time.Millisecond)

		_, found, err := short.Get(ctx, "ephemeral")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
