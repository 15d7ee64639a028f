// Package ratelimit holds the best-effort attempt counter backing password
// lockout. The counter store is external and may be unavailable; callers
// treat failures as "counting disabled" so an outage degrades lockout
// enforcement without ever blocking legitimate trading.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter is the increment-and-get contract required by the permission guard.
type Counter interface {
	IncrAndGet(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Remove(ctx context.Context, key string) error
}

// RedisCounter implements Counter on a redis client.
type RedisCounter struct {
	client redis.Cmdable
}

func NewRedisCounter(client redis.Cmdable) *RedisCounter {
	return &RedisCounter{client: client}
}

// IncrAndGet atomically increments the key and refreshes its ttl.
func (c *RedisCounter) IncrAndGet(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *RedisCounter) Remove(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
