//go:build integration

// Run with: go test -tags=integration -v ./internal/postgres/
package postgres_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ramiqadoumi/go-drive-quest/internal/catalog"
	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/postgres"
)

var testPostgresDSN string

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	pgCtr, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("drivequest"),
		tcPostgres.WithUsername("drivequest"),
		tcPostgres.WithPassword("drivequest"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}
	defer pgCtr.Terminate(ctx) //nolint:errcheck

	dsn, err := pgCtr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("postgres connection string: %v", err)
	}
	testPostgresDSN = dsn

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	// Second run must be a no-op.
	if _, err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("re-migrate: %v", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	if err := postgres.NewMissionRepository(pool).Seed(ctx, cat.Levels(), cat.Missions()); err != nil {
		log.Fatalf("seed: %v", err)
	}

	return m.Run()
}

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, testPostgresDSN)
	require.NoError(t, err)
	t.Cleanup(func() {
		pool.Exec(ctx, "TRUNCATE reward_claims, task_completions, mission_progress, users CASCADE") //nolint:errcheck
		pool.Close()
	})
	return pool
}

func newUser(t *testing.T, users postgres.UserRepository, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "Test", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestUsers_CreateAndLookup(t *testing.T) {
	users := postgres.NewUserRepository(newPool(t))
	ctx := context.Background()

	u := newUser(t, users, "a@example.com")

	got, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.StreakState{}, got.Streak)

	err = users.Create(ctx, &domain.User{Email: "a@example.com", PasswordHash: "y"})
	var taken *domain.EmailTakenError
	require.ErrorAs(t, err, &taken)

	_, err = users.GetByID(ctx, "not-a-uuid")
	var nf *domain.UserNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUsers_UpdateCheckIn_OptimisticGuard(t *testing.T) {
	users := postgres.NewUserRepository(newPool(t))
	ctx := context.Background()
	u := newUser(t, users, "b@example.com")

	ok, total, err := users.UpdateCheckIn(ctx, u.ID, domain.StreakState{CurrentStreak: 1, LastCompletedDate: "2024-05-01"}, "", 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, total)

	// A second writer still holding the old date loses.
	ok, _, err = users.UpdateCheckIn(ctx, u.ID, domain.StreakState{CurrentStreak: 1, LastCompletedDate: "2024-05-01"}, "", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", got.Streak.LastCompletedDate)
	assert.Equal(t, 5, got.Points)
}

func TestCompletions_IdempotentPerDay(t *testing.T) {
	pool := newPool(t)
	users := postgres.NewUserRepository(pool)
	completions := postgres.NewCompletionRepository(pool)
	ctx := context.Background()
	u := newUser(t, users, "c@example.com")

	c := &domain.TaskCompletion{UserID: u.ID, TaskID: 3, Day: "2024-05-01", Points: 5}
	inserted, total, err := completions.Record(ctx, c)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 5, total)

	inserted, _, err = completions.Record(ctx, c)
	require.NoError(t, err)
	assert.False(t, inserted)

	next := &domain.TaskCompletion{UserID: u.ID, TaskID: 3, Day: "2024-05-02", Points: 5}
	inserted, total, err = completions.Record(ctx, next)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 10, total)

	done, err := completions.CompletedBetween(ctx, u.ID, "2024-05-02", "2024-05-08")
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{3: true}, done)

	early, err := completions.CompletedBetween(ctx, u.ID, "", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{3: true}, early, "an empty lower bound reaches back to the first completion")

	later, err := completions.CompletedBetween(ctx, u.ID, "2024-05-03", "2024-05-08")
	require.NoError(t, err)
	assert.Empty(t, later)
}

func TestMissions_CompleteSummaryRecent(t *testing.T) {
	pool := newPool(t)
	users := postgres.NewUserRepository(pool)
	missions := postgres.NewMissionRepository(pool)
	ctx := context.Background()
	u := newUser(t, users, "d@example.com")

	m, err := missions.Mission(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMissionPoints, m.Points)

	completed, total, err := missions.Complete(ctx, u.ID, m, time.Now())
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, 10, total)

	completed, total, err = missions.Complete(ctx, u.ID, m, time.Now())
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 10, total, "points awarded once")

	overall, perLevel, err := missions.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, overall.Completed)
	assert.Equal(t, 5, overall.Total)
	assert.Equal(t, 20.0, overall.Percent)
	require.NotEmpty(t, perLevel)
	assert.Equal(t, domain.LevelSummary{LevelID: 1, Completed: 1, Total: 3, Percent: 33}, perLevel[0])

	recent, err := missions.Recent(ctx, u.ID, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Start the car", recent[0].Title)

	_, err = missions.Mission(ctx, 9, 9)
	var nf *domain.MissionNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRewards_ClaimOnce(t *testing.T) {
	pool := newPool(t)
	users := postgres.NewUserRepository(pool)
	rewards := postgres.NewRewardRepository(pool)
	ctx := context.Background()
	u := newUser(t, users, "e@example.com")

	require.NoError(t, rewards.Claim(ctx, u.ID, "1", time.Now()))
	err := rewards.Claim(ctx, u.ID, "1", time.Now())
	var already *domain.AlreadyCompletedError
	require.ErrorAs(t, err, &already)

	claimed, err := rewards.Claimed(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"1": true}, claimed)
}

func TestUsers_Ranking(t *testing.T) {
	pool := newPool(t)
	users := postgres.NewUserRepository(pool)
	completions := postgres.NewCompletionRepository(pool)
	ctx := context.Background()

	low := newUser(t, users, "low@example.com")
	high := newUser(t, users, "high@example.com")
	_, _, err := completions.Record(ctx, &domain.TaskCompletion{UserID: high.ID, TaskID: 1, Day: "2024-05-01", Points: 50})
	require.NoError(t, err)

	ranking, err := users.Ranking(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, high.ID, ranking[0].UserID)
	assert.Equal(t, low.ID, ranking[1].UserID)
}
