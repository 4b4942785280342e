package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "eventgo:cache:"
	generationKey = keyPrefix + "gen"
)

// redisCache implements Cache on a go-redis client.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a Cache backed by client. Entries expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

// Generation returns the counter value; a missing counter is generation 0.
func (c *redisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache generation: %w", err)
	}
	return gen, nil
}

func dataKey(gen int64, key string) string {
	return fmt.Sprintf("%s%d:%s", keyPrefix, gen, key)
}

func (c *redisCache) Get(ctx context.Context, gen int64, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, dataKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache key %s: %w", key, err)
	}
	return data, true, nil
}

func (c *redisCache) Set(ctx context.Context, gen int64, key string, value []byte) error {
	if err := c.client.Set(ctx, dataKey(gen, key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing cache key %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bumping cache generation: %w", err)
	}
	return nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
