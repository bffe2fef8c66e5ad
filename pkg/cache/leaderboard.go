package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"bagking/pkg/store"
)

// LeaderboardCache caches leaderboard pages. Implementations must treat
// every failure as a miss so the store stays the source of truth.
type LeaderboardCache interface {
	// Get returns the cached page for the limit, with ok=false on a miss
	Get(ctx context.Context, limit int) (entries []store.LeaderboardEntry, ok bool, err error)

	// Set stores the page for the limit
	Set(ctx context.Context, limit int, entries []store.LeaderboardEntry) error

	// Invalidate drops every cached page
	Invalidate(ctx context.Context) error
}

const versionKey = "leaderboard:version"

// RedisLeaderboardCache implements LeaderboardCache with versioned keys:
// Invalidate bumps a version counter instead of scanning for keys, and
// stale pages simply age out via TTL.
type RedisLeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLeaderboardCache creates a new RedisLeaderboardCache instance
func NewRedisLeaderboardCache(client *redis.Client, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{client: client, ttl: ttl}
}

func (c *RedisLeaderboardCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return v, nil
}

func pageKey(version int64, limit int) string {
	return fmt.Sprintf("leaderboard:%d:%d", version, limit)
}

// Get returns the cached page for the limit
func (c *RedisLeaderboardCache) Get(ctx context.Context, limit int) ([]store.LeaderboardEntry, bool, error) {
	v, err := c.version(ctx)
	if err != nil {
		return nil, false, err
	}

	data, err := c.client.Get(ctx, pageKey(v, limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var entries []store.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// Treat a corrupt entry as a miss rather than failing the request
		return nil, false, nil
	}
	return entries, true, nil
}

// Set stores the page for the limit
func (c *RedisLeaderboardCache) Set(ctx context.Context, limit int, entries []store.LeaderboardEntry) error {
	v, err := c.version(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pageKey(v, limit), data, c.ttl).Err()
}

// Invalidate drops every cached page by moving to a fresh version
func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, versionKey).Err()
}
