package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultResponseTTL is how long a cached GET response lives.
const DefaultResponseTTL = time.Hour

const responsePrefix = "api:"

// ResponseKey is the cache key for a request URI.
func ResponseKey(uri string) string { return responsePrefix + uri }

// ResponseCache stores serialized GET responses keyed by request URI.
type ResponseCache interface {
	Get(ctx context.Context, uri string) ([]byte, bool, error)
	Set(ctx context.Context, uri string, body []byte, ttl time.Duration) error
	// InvalidatePrefix drops every cached URI starting with prefix and
	// returns how many entries were removed.
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

type responseCache struct {
	client *redis.Client
}

func NewResponseCache(client *redis.Client) ResponseCache {
	return &responseCache{client: client}
}

func (c *responseCache) Get(ctx context.Context, uri string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, ResponseKey(uri)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get response %s: %w", uri, err)
	}
	return data, true, nil
}

func (c *responseCache) Set(ctx context.Context, uri string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultResponseTTL
	}
	if err := c.client.Set(ctx, ResponseKey(uri), body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set response %s: %w", uri, err)
	}
	return nil
}

func (c *responseCache) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	iter := c.client.Scan(ctx, 0, ResponseKey(prefix)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del %d keys: %w", len(keys), err)
	}
	return int(n), nil
}
