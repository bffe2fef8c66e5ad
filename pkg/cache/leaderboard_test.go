package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bagking/pkg/store"
)

func newTestCache(t *testing.T) (*RedisLeaderboardCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisLeaderboardCache(client, 30*time.Second), mr
}

func intPtr(v int) *int { return &v }

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	entries := []store.LeaderboardEntry{
		{ID: "s1", Name: "P2", Height: 250, Completions: 0},
		{ID: "s2", Name: "P3", Height: 250, Completions: 1, BestTime: intPtr(280)},
		{ID: "s3", Name: "P1", Height: 100, Completions: 0},
	}

	_, ok, err := c.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, 10, entries))

	got, ok, err := c.Get(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entries, got)

	// A different limit is a different page
	_, ok, err = c.Get(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	entries := []store.LeaderboardEntry{{ID: "s1", Name: "Ana", Height: 10}}
	require.NoError(t, c.Set(ctx, 10, entries))

	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok, "stale page must not survive invalidation")

	// Cache is usable again after re-population
	require.NoError(t, c.Set(ctx, 10, entries))
	got, ok, err := c.Get(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entries, got)
}

func TestCacheTTLExpiry(t *testing.T) {
	mrc, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mrc.Set(ctx, 10, []store.LeaderboardEntry{{Name: "Ana"}}))
	mr.FastForward(time.Minute)

	_, ok, err := mrc.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("leaderboard:0:10", "{not json"))

	_, ok, err := c.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}
