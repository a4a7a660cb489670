// Package redis holds the Redis-backed stores: streaks, response cache,
// learning-game sessions, the points leaderboard and rate limiting.
package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is re-exported so callers need not import go-redis themselves.
type Client = redis.Client

// NewClient creates and returns a new Redis client.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		PoolSize:     10,
	})
}
