package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/storage/cache"
)

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c cache.Cache = cache.Noop{}

	version, err := c.Version(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, version, "k", []int{1}))

	var dst []int
	hit, err := c.Get(ctx, version, "k", &dst)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, dst)

	assert.NoError(t, c.Invalidate(ctx))
}

func newRedisCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cl.Close() })

	return cache.NewRedisCache(cl, time.Minute), mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round trip a cached value", func(t *testing.T) {
		c, _ := newRedisCache(t)

		version, err := c.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), version)

		require.NoError(t, c.Set(ctx, version, "list:1:10", []string{"TS-001", "TS-002"}))

		var dst []string
		hit, err := c.Get(ctx, version, "list:1:10", &dst)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, []string{"TS-001", "TS-002"}, dst)
	})

	t.Run("Should miss an unknown key", func(t *testing.T) {
		c, _ := newRedisCache(t)

		var dst []string
		hit, err := c.Get(ctx, 0, "list:9:9", &dst)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("Should move readers to a new version on invalidate", func(t *testing.T) {
		c, _ := newRedisCache(t)

		require.NoError(t, c.Set(ctx, 0, "a", 1))
		require.NoError(t, c.Invalidate(ctx))

		version, err := c.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)

		var dst int
		hit, err := c.Get(ctx, version, "a", &dst)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("Should keep a write made with an old version out of the new one", func(t *testing.T) {
		c, _ := newRedisCache(t)

		before, err := c.Version(ctx)
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx))
		require.NoError(t, c.Set(ctx, before, "a", 1))

		after, err := c.Version(ctx)
		require.NoError(t, err)

		var dst int
		hit, err := c.Get(ctx, after, "a", &dst)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("Should expire entries after the ttl", func(t *testing.T) {
		c, mr := newRedisCache(t)

		require.NoError(t, c.Set(ctx, 0, "a", 1))
		mr.FastForward(2 * time.Minute)

		var dst int
		hit, err := c.Get(ctx, 0, "a", &dst)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("Should report redis failures", func(t *testing.T) {
		c, mr := newRedisCache(t)
		mr.Close()

		_, err := c.Version(ctx)
		assert.Error(t, err)
	})
}
