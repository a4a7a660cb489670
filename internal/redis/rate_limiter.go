package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles repeated attempts per key, e.g. logins per email.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	// Reset forgets every attempt recorded for key.
	Reset(ctx context.Context, key string) error
	Limit() int
}

type slidingWindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows at most limit attempts per key inside window. Keys are
// namespaced under "ratelimit:<scope>:".
func NewRateLimiter(client *redis.Client, scope string, limit int, window time.Duration) RateLimiter {
	return &slidingWindowLimiter{
		client: client,
		prefix: "ratelimit:" + scope + ":",
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (r *slidingWindowLimiter) Limit() int { return r.limit }

// Allow records an attempt and reports whether it is still within the limit.
// A sorted set of attempt timestamps serves as the window.
func (r *slidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now().UnixNano()
	windowStart := now - r.window.Nanoseconds()
	rkey := r.prefix + key

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(now), Member: strconv.FormatInt(now, 10)})
	countCmd := pipe.ZCard(ctx, rkey)
	pipe.Expire(ctx, rkey, r.window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limiter pipeline for %q: %w", key, err)
	}
	return countCmd.Val() <= int64(r.limit), nil
}

func (r *slidingWindowLimiter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("rate limiter reset %q: %w", key, err)
	}
	return nil
}
