package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

const leaderboardKey = "leaderboard:points"

// Leaderboard ranks users by total points in a sorted set.
type Leaderboard interface {
	// SetPoints records a user's absolute total. Totals only move up, so an
	// older, lower total arriving late is ignored.
	SetPoints(ctx context.Context, userID string, points int) error
	Top(ctx context.Context, n int) ([]domain.RankEntry, error)
	// Rank is 1-based; 0 means the user is not ranked.
	Rank(ctx context.Context, userID string) (int, error)
}

type leaderboard struct {
	client *redis.Client
}

func NewLeaderboard(client *redis.Client) Leaderboard {
	return &leaderboard{client: client}
}

func (l *leaderboard) SetPoints(ctx context.Context, userID string, points int) error {
	err := l.client.ZAddGT(ctx, leaderboardKey, redis.Z{Score: float64(points), Member: userID}).Err()
	if err != nil {
		return fmt.Errorf("redis leaderboard set %s: %w", userID, err)
	}
	return nil
}

func (l *leaderboard) Top(ctx context.Context, n int) ([]domain.RankEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis leaderboard top %d: %w", n, err)
	}
	out := make([]domain.RankEntry, 0, len(zs))
	for _, z := range zs {
		id, _ := z.Member.(string)
		out = append(out, domain.RankEntry{UserID: id, Points: int(z.Score)})
	}
	return out, nil
}

func (l *leaderboard) Rank(ctx context.Context, userID string) (int, error) {
	r, err := l.client.ZRevRank(ctx, leaderboardKey, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis leaderboard rank %s: %w", userID, err)
	}
	return int(r) + 1, nil
}
