package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// MissionRepository covers levels, missions and per-user mission progress.
type MissionRepository interface {
	// Seed upserts the static level and mission definitions.
	Seed(ctx context.Context, levels []domain.Level, missions []domain.Mission) error
	Levels(ctx context.Context) ([]domain.Level, error)
	Level(ctx context.Context, levelID int) (*domain.Level, error)
	Missions(ctx context.Context, levelID int) ([]domain.Mission, error)
	Mission(ctx context.Context, levelID, missionID int) (*domain.Mission, error)
	// Complete marks a mission done for the user and awards its points once.
	// completed is false when the mission had already been completed.
	Complete(ctx context.Context, userID string, m *domain.Mission, at time.Time) (completed bool, total int, err error)
	Progress(ctx context.Context, userID string) ([]domain.MissionProgress, error)
	Summary(ctx context.Context, userID string) (overall domain.LevelSummary, perLevel []domain.LevelSummary, err error)
	Recent(ctx context.Context, userID string, limit int) ([]RecentMission, error)
}

// RecentMission is a completed mission joined with its definition.
type RecentMission struct {
	domain.MissionProgress
	Title       string `json:"title"`
	Description string `json:"description"`
}

type missionRepository struct {
	pool *pgxpool.Pool
}

func NewMissionRepository(pool *pgxpool.Pool) MissionRepository {
	return &missionRepository{pool: pool}
}

func (r *missionRepository) Seed(ctx context.Context, levels []domain.Level, missions []domain.Mission) error {
	batch := &pgx.Batch{}
	for _, l := range levels {
		batch.Queue(`
			INSERT INTO levels (id, title, description) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description
		`, l.ID, l.Title, l.Description)
	}
	for _, m := range missions {
		batch.Queue(`
			INSERT INTO missions (level_id, mission_id, title, description, points, unlocked)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (level_id, mission_id) DO UPDATE
			SET title = EXCLUDED.title, description = EXCLUDED.description,
			    points = EXCLUDED.points, unlocked = EXCLUDED.unlocked
		`, m.LevelID, m.MissionID, m.Title, m.Description, m.AwardedPoints(), m.Unlocked)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed levels and missions: %w", err)
	}
	return nil
}

func (r *missionRepository) Levels(ctx context.Context) ([]domain.Level, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, description FROM levels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	defer rows.Close()

	var out []domain.Level
	for rows.Next() {
		var l domain.Level
		if err := rows.Scan(&l.ID, &l.Title, &l.Description); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *missionRepository) Level(ctx context.Context, levelID int) (*domain.Level, error) {
	var l domain.Level
	err := r.pool.QueryRow(ctx, `SELECT id, title, description FROM levels WHERE id = $1`, levelID).
		Scan(&l.ID, &l.Title, &l.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.LevelNotFoundError{LevelID: levelID}
		}
		return nil, fmt.Errorf("get level %d: %w", levelID, err)
	}
	return &l, nil
}

// Missions lists all missions, or only those of levelID when it is non-zero.
func (r *missionRepository) Missions(ctx context.Context, levelID int) ([]domain.Mission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT level_id, mission_id, title, description, points, unlocked
		FROM missions
		WHERE $1 = 0 OR level_id = $1
		ORDER BY level_id, mission_id
	`, levelID)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var out []domain.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *missionRepository) Mission(ctx context.Context, levelID, missionID int) (*domain.Mission, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT level_id, mission_id, title, description, points, unlocked
		FROM missions
		WHERE level_id = $1 AND mission_id = $2
	`, levelID, missionID)
	m, err := scanMission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.MissionNotFoundError{LevelID: levelID, MissionID: missionID}
	}
	return m, err
}

func (r *missionRepository) Complete(ctx context.Context, userID string, m *domain.Mission, at time.Time) (bool, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("begin mission completion: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		INSERT INTO mission_progress (user_id, level_id, mission_id, completed, completed_at)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (user_id, level_id, mission_id) DO NOTHING
	`, userID, m.LevelID, m.MissionID, at)
	if err != nil {
		return false, 0, fmt.Errorf("record mission %d/%d for user %s: %w", m.LevelID, m.MissionID, userID, err)
	}

	inserted := tag.RowsAffected() == 1
	delta := 0
	if inserted {
		delta = m.AwardedPoints()
	}
	var total int
	err = tx.QueryRow(ctx, `UPDATE users SET points = points + $2 WHERE id = $1 RETURNING points`, userID, delta).
		Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, &domain.UserNotFoundError{Ref: userID}
		}
		return false, 0, fmt.Errorf("award mission points to user %s: %w", userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("commit mission completion: %w", err)
	}
	return inserted, total, nil
}

func (r *missionRepository) Progress(ctx context.Context, userID string) ([]domain.MissionProgress, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, level_id, mission_id, completed, completed_at
		FROM mission_progress
		WHERE user_id = $1
		ORDER BY level_id, mission_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []domain.MissionProgress
	for rows.Next() {
		var p domain.MissionProgress
		if err := rows.Scan(&p.UserID, &p.LevelID, &p.MissionID, &p.Completed, &p.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Summary counts completed missions against every defined mission, overall
// and per level. Levels without missions are omitted.
func (r *missionRepository) Summary(ctx context.Context, userID string) (domain.LevelSummary, []domain.LevelSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.level_id,
		       COUNT(*)                                  AS total,
		       COUNT(p.mission_id) FILTER (WHERE p.completed) AS completed
		FROM missions m
		LEFT JOIN mission_progress p
		       ON p.level_id = m.level_id AND p.mission_id = m.mission_id AND p.user_id = $1
		GROUP BY m.level_id
		ORDER BY m.level_id
	`, userID)
	if err != nil {
		return domain.LevelSummary{}, nil, fmt.Errorf("summary for user %s: %w", userID, err)
	}
	defer rows.Close()

	var (
		overall  domain.LevelSummary
		perLevel []domain.LevelSummary
	)
	for rows.Next() {
		var s domain.LevelSummary
		if err := rows.Scan(&s.LevelID, &s.Total, &s.Completed); err != nil {
			return domain.LevelSummary{}, nil, fmt.Errorf("scan summary: %w", err)
		}
		s.Percent = percent(s.Completed, s.Total)
		perLevel = append(perLevel, s)
		overall.Total += s.Total
		overall.Completed += s.Completed
	}
	if err := rows.Err(); err != nil {
		return domain.LevelSummary{}, nil, err
	}
	overall.Percent = percent(overall.Completed, overall.Total)
	return overall, perLevel, nil
}

func (r *missionRepository) Recent(ctx context.Context, userID string, limit int) ([]RecentMission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.user_id, p.level_id, p.mission_id, p.completed, p.completed_at,
		       m.title, m.description
		FROM mission_progress p
		JOIN missions m ON m.level_id = p.level_id AND m.mission_id = p.mission_id
		WHERE p.user_id = $1 AND p.completed
		ORDER BY p.completed_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent missions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []RecentMission
	for rows.Next() {
		var rm RecentMission
		err := rows.Scan(&rm.UserID, &rm.LevelID, &rm.MissionID, &rm.Completed, &rm.CompletedAt,
			&rm.Title, &rm.Description)
		if err != nil {
			return nil, fmt.Errorf("scan recent mission: %w", err)
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func scanMission(row rowScanner) (*domain.Mission, error) {
	var m domain.Mission
	if err := row.Scan(&m.LevelID, &m.MissionID, &m.Title, &m.Description, &m.Points, &m.Unlocked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan mission: %w", err)
	}
	return &m, nil
}

// percent rounds to the nearest whole percentage; 0 when total is 0.
func percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(done) / float64(total) * 100)
}
