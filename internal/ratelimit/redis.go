package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
)

// DefaultWindow is the sliding window used for submission limits.
const DefaultWindow = time.Minute

// Key returns the Redis key for a client IP.
func Key(clientIP string) string {
	return fmt.Sprintf("ratelimit:submissions:%s", clientIP)
}

// RedisRateLimiter implements rate limiting using Redis sliding window algorithm.
// Each request is one member of a sorted set scored by its arrival in ms.
type RedisRateLimiter struct {
	client              redis.Cmdable
	window              time.Duration
	rateLimitRejections metric.Int64Counter
	now                 func() time.Time
}

// NewRedisRateLimiter creates a new Redis-based rate limiter.
// rateLimitRejections may be nil when OTel metrics are disabled.
func NewRedisRateLimiter(client redis.Cmdable, rateLimitRejections metric.Int64Counter) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:              client,
		window:              DefaultWindow,
		rateLimitRejections: rateLimitRejections,
		now:                 time.Now,
	}
}

// Window returns the sliding window length.
func (rl *RedisRateLimiter) Window() time.Duration {
	return rl.window
}

// AllowRequest checks if a request from clientIP is allowed.
// Returns (allowed, remaining, error)
func (rl *RedisRateLimiter) AllowRequest(ctx context.Context, clientIP string, limit int) (bool, int, error) {
	now := rl.now()
	windowStart := now.Add(-rl.window)

	key := Key(clientIP)

	pipe := rl.client.TxPipeline()

	// descarta entradas fora da janela
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))

	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})

	countCmd := pipe.ZCard(ctx, key)

	// 2x a janela garante limpeza de IPs que sumiram
	pipe.Expire(ctx, key, 2*rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count, err := countCmd.Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to get count: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	allowed := count <= int64(limit)

	if !allowed && rl.rateLimitRejections != nil {
		rl.rateLimitRejections.Add(ctx, 1)
	}

	return allowed, remaining, nil
}
