package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// RewardRepository stores which rewards a user has claimed.
type RewardRepository interface {
	Claimed(ctx context.Context, userID string) (map[string]bool, error)
	// Claim records the claim. It returns AlreadyCompletedError when the
	// reward was claimed before.
	Claim(ctx context.Context, userID, rewardID string, at time.Time) error
}

type rewardRepository struct {
	pool *pgxpool.Pool
}

func NewRewardRepository(pool *pgxpool.Pool) RewardRepository {
	return &rewardRepository{pool: pool}
}

func (r *rewardRepository) Claimed(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT reward_id FROM reward_claims WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list claims for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (r *rewardRepository) Claim(ctx context.Context, userID, rewardID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO reward_claims (user_id, reward_id, claimed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, reward_id) DO NOTHING
	`, userID, rewardID, at)
	if err != nil {
		return fmt.Errorf("claim reward %s for user %s: %w", rewardID, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.AlreadyCompletedError{What: "reward", ID: rewardID}
	}
	return nil
}
