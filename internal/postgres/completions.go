package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// CompletionRepository records daily task completions. A task counts at most
// once per user per calendar day.
type CompletionRepository interface {
	// Record stores c and adds its points to the user. inserted is false,
	// and nothing changes, when the task was already completed that day.
	Record(ctx context.Context, c *domain.TaskCompletion) (inserted bool, total int, err error)
	// CompletedBetween returns the ids of tasks completed on days in
	// [from, to]. An empty from has no lower bound.
	CompletedBetween(ctx context.Context, userID, from, to string) (map[int]bool, error)
}

type completionRepository struct {
	pool *pgxpool.Pool
}

func NewCompletionRepository(pool *pgxpool.Pool) CompletionRepository {
	return &completionRepository{pool: pool}
}

func (r *completionRepository) Record(ctx context.Context, c *domain.TaskCompletion) (bool, int, error) {
	day, err := parseDay(c.Day)
	if err != nil {
		return false, 0, err
	}
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("begin task completion: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		INSERT INTO task_completions (user_id, task_id, day, points, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, task_id, day) DO NOTHING
	`, c.UserID, c.TaskID, day, c.Points, c.At)
	if err != nil {
		return false, 0, fmt.Errorf("record task %d for user %s: %w", c.TaskID, c.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, 0, nil
	}

	var total int
	err = tx.QueryRow(ctx, `UPDATE users SET points = points + $2 WHERE id = $1 RETURNING points`,
		c.UserID, c.Points).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, &domain.UserNotFoundError{Ref: c.UserID}
		}
		return false, 0, fmt.Errorf("award task points to user %s: %w", c.UserID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("commit task completion: %w", err)
	}
	return true, total, nil
}

func (r *completionRepository) CompletedBetween(ctx context.Context, userID, from, to string) (map[int]bool, error) {
	var fromDay *time.Time
	if from != "" {
		d, err := parseDay(from)
		if err != nil {
			return nil, err
		}
		fromDay = &d
	}
	toDay, err := parseDay(to)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT task_id
		FROM task_completions
		WHERE user_id = $1 AND ($2::date IS NULL OR day >= $2) AND day <= $3
	`, userID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("list completions for user %s: %w", userID, err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		done[id] = true
	}
	return done, rows.Err()
}
