package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisRateLimiter counts requests per fixed window in Redis so every API
// instance shares the same budget.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisRateLimiter allows limit requests per key in each window
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	if window <= 0 {
		window = time.Second
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow increments the window counter for key
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	n, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, fmt.Errorf("redis rate limit: %w", err)
	}
	if n == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			return true, fmt.Errorf("redis rate limit: %w", err)
		}
	}

	return n <= int64(rl.limit), nil
}

// Reset clears the counter for key
func (rl *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.client.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}
