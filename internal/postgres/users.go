package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// UserRepository abstracts all database access for users.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	// UpdateCheckIn stores the new check-in streak and adds bonus points,
	// provided the stored streak date still equals prevDate. It reports false
	// when a concurrent check-in got there first.
	UpdateCheckIn(ctx context.Context, id string, streak domain.StreakState, prevDate string, bonus int) (bool, int, error)
	Ranking(ctx context.Context, limit int) ([]domain.RankEntry, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, points, current_streak,
		       last_streak_date, created_at, last_login_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.EmailTakenError{Email: u.Email}
		}
		return fmt.Errorf("create user %s: %w", u.Email, err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.UserNotFoundError{Ref: id}
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row, email)
}

func (r *userRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("touch login for user %s: %w", id, err)
	}
	return nil
}

func (r *userRepository) UpdateCheckIn(ctx context.Context, id string, streak domain.StreakState, prevDate string, bonus int) (bool, int, error) {
	newDate, err := parseDay(streak.LastCompletedDate)
	if err != nil {
		return false, 0, err
	}
	var prev *time.Time
	if prevDate != "" {
		p, err := parseDay(prevDate)
		if err != nil {
			return false, 0, err
		}
		prev = &p
	}

	var points int
	err = r.pool.QueryRow(ctx, `
		UPDATE users
		SET current_streak = $2, last_streak_date = $3, points = points + $4
		WHERE id = $1 AND last_streak_date IS NOT DISTINCT FROM $5
		RETURNING points
	`, id, streak.CurrentStreak, newDate, bonus, prev).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("update check-in for user %s: %w", id, err)
	}
	return true, points, nil
}

func (r *userRepository) Ranking(ctx context.Context, limit int) ([]domain.RankEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, points, current_streak
		FROM users
		ORDER BY points DESC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}
	defer rows.Close()

	var out []domain.RankEntry
	for rows.Next() {
		var e domain.RankEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Points, &e.Streak); err != nil {
			return nil, fmt.Errorf("scan rank entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanUser(row rowScanner, ref string) (*domain.User, error) {
	var (
		u          domain.User
		streakDate *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Points,
		&u.Streak.CurrentStreak, &streakDate, &u.CreatedAt, &u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.UserNotFoundError{Ref: ref}
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Streak.LastCompletedDate = formatDay(streakDate)
	return &u, nil
}
