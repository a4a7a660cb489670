package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const processedTTL = 24 * time.Hour

func processedKey(eventID string) string { return "event:processed:" + eventID }

// ProcessedSet remembers which events the worker already handled, so a
// redelivered record is skipped.
type ProcessedSet interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

type processedSet struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProcessedSet keeps markers for 24h, well past any consumer-group
// redelivery window.
func NewProcessedSet(client *redis.Client) ProcessedSet {
	return &processedSet{client: client, ttl: processedTTL}
}

func (s *processedSet) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, processedKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", eventID, err)
	}
	return n == 1, nil
}

func (s *processedSet) MarkProcessed(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, processedKey(eventID), 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis mark processed %s: %w", eventID, err)
	}
	return nil
}
