// Package cache stores query results in Redis under a version prefix. Bumping
// the version invalidates every cached page and search at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tuanvumaihuynh/catalog-ingest/internal/config"
)

const (
	versionKey = "catalog:products:version"
	keyPrefix  = "catalog:products:v"
)

// Cache stores JSON encoded values under a generation. Callers read Version
// once per query and pass it to both Get and Set, so a value loaded before an
// Invalidate can only land in the generation it was read from.
type Cache interface {
	Version(ctx context.Context) (int64, error)
	Get(ctx context.Context, version int64, key string, dst any) (bool, error)
	Set(ctx context.Context, version int64, key string, value any) error
	Invalidate(ctx context.Context) error
}

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = Noop{}
)

type RedisCache struct {
	cl  redis.UniversalClient
	ttl time.Duration
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	cl := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := cl.Ping(pingCtx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return cl, nil
}

func NewRedisCache(cl redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{cl: cl, ttl: ttl}
}

// Version returns the current generation. A missing version key is generation 0.
func (c *RedisCache) Version(ctx context.Context) (int64, error) {
	version, err := c.cl.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("redis get version: %w", err)
	}
	return version, nil
}

func (c *RedisCache) Get(ctx context.Context, version int64, key string, dst any) (bool, error) {
	data, err := c.cl.Get(ctx, versionedKey(version, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal cached value: %w", err)
	}

	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, version int64, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	if err := c.cl.Set(ctx, versionedKey(version, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Invalidate moves readers to a new generation. Entries of older generations
// are never read again and expire with their TTL.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.cl.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}

func versionedKey(version int64, key string) string {
	return fmt.Sprintf("%s%d:%s", keyPrefix, version, key)
}

// Noop never stores anything. It is used when Redis is not configured.
type Noop struct{}

func (Noop) Version(context.Context) (int64, error)              { return 0, nil }
func (Noop) Get(context.Context, int64, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, int64, string, any) error         { return nil }
func (Noop) Invalidate(context.Context) error                      { return nil }
