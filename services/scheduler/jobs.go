package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/events"
	"github.com/ramiqadoumi/go-drive-quest/internal/progress"
)

// Job names, also used as metric labels.
const (
	JobDayRollover     = "day-rollover"
	JobLeaderboardSync = "leaderboard-sync"
)

// RolloverJob publishes a day.rollover event naming the day that just began
// in loc. Workers react by flushing cached responses.
func RolloverJob(pub *events.Publisher, loc *time.Location, now func() time.Time) JobFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		ev, err := events.New(domain.EventDayRollover, "", domain.RolloverPayload{
			Day: progress.Today(now(), loc),
		})
		if err != nil {
			return err
		}
		if err := pub.Publish(ctx, ev); err != nil {
			return fmt.Errorf("publish rollover: %w", err)
		}
		return nil
	}
}

// Ranker lists users by points from the system of record.
type Ranker interface {
	Ranking(ctx context.Context, limit int) ([]domain.RankEntry, error)
}

// PointsSetter receives absolute point totals.
type PointsSetter interface {
	SetPoints(ctx context.Context, userID string, points int) error
}

// LeaderboardSyncJob copies the top limit users from the database into the
// Redis leaderboard, repairing it after lost events or a Redis flush.
func LeaderboardSyncJob(ranker Ranker, board PointsSetter, limit int) JobFunc {
	return func(ctx context.Context) error {
		entries, err := ranker.Ranking(ctx, limit)
		if err != nil {
			return fmt.Errorf("load ranking: %w", err)
		}
		for _, e := range entries {
			if err := board.SetPoints(ctx, e.UserID, e.Points); err != nil {
				return fmt.Errorf("sync %s: %w", e.UserID, err)
			}
		}
		return nil
	}
}
