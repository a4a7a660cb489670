package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

func streakCountKey(userID string) string { return "streak:" + userID + ":currentStreak" }
func streakDateKey(userID string) string  { return "streak:" + userID + ":lastCompletedDate" }

// StreakStore persists the task streak as two plain keys per user.
type StreakStore struct {
	client *redis.Client
}

func NewStreakStore(client *redis.Client) *StreakStore {
	return &StreakStore{client: client}
}

// LoadStreak returns the zero state when nothing has been stored yet.
func (s *StreakStore) LoadStreak(ctx context.Context, userID string) (domain.StreakState, error) {
	vals, err := s.client.MGet(ctx, streakCountKey(userID), streakDateKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.StreakState{}, fmt.Errorf("redis load streak for %s: %w", userID, err)
	}

	var st domain.StreakState
	if raw, ok := vals[0].(string); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.StreakState{}, fmt.Errorf("redis streak count for %s: %w", userID, err)
		}
		st.CurrentStreak = n
	}
	if raw, ok := vals[1].(string); ok {
		st.LastCompletedDate = raw
	}
	if st.CurrentStreak == 0 || st.LastCompletedDate == "" {
		return domain.StreakState{}, nil
	}
	return st, nil
}

// SaveStreak writes both keys atomically.
func (s *StreakStore) SaveStreak(ctx context.Context, userID string, st domain.StreakState) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, streakCountKey(userID), st.CurrentStreak, 0)
	pipe.Set(ctx, streakDateKey(userID), st.LastCompletedDate, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save streak for %s: %w", userID, err)
	}
	return nil
}
