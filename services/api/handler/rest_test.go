package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-drive-quest/internal/auth"
	"github.com/ramiqadoumi/go-drive-quest/internal/cache"
	"github.com/ramiqadoumi/go-drive-quest/internal/catalog"
	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/events"
	"github.com/ramiqadoumi/go-drive-quest/internal/hotspot"
	redisstore "github.com/ramiqadoumi/go-drive-quest/internal/redis"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
	"github.com/ramiqadoumi/go-drive-quest/services/api/handler"
	"github.com/ramiqadoumi/go-drive-quest/services/api/middleware"
)

// 2024-03-12 is a Tuesday, catalog day 3: the daily-drive task is due.
var fixedNow = time.Date(2024, 3, 12, 9, 30, 0, 0, time.UTC)

type env struct {
	t        *testing.T
	h        *handler.REST
	router   http.Handler
	users    *fakeUsers
	missions *fakeMissions
	producer *fakeProducer
	tokens   *auth.TokenManager
	mr       *miniredis.Miniredis
	store    cache.Store
}

type envOption func(*handler.Deps)

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redisstore.NewClient(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := newFakeUsers()
	missions := newFakeMissions(users)
	producer := &fakeProducer{}
	tokens := auth.NewTokenManager("test-secret", "drivequest-test", time.Hour)

	d := handler.Deps{
		Catalog:      cat,
		Users:        users,
		Completions:  newFakeCompletions(users),
		Missions:     missions,
		Rewards:      newFakeRewards(),
		Streaks:      redisstore.NewStreakStore(client),
		Sessions:     redisstore.NewGameSessionStore(client),
		Leaderboard:  redisstore.NewLeaderboard(client),
		LoginLimiter: redisstore.NewRateLimiter(client, "login", 3, time.Minute),
		Tokens:       tokens,
		Events:       events.NewPublisher(producer, "", logger),
		Logger:       logger,
		Now:          func() time.Time { return fixedNow },
	}
	for _, opt := range opts {
		opt(&d)
	}
	h := handler.NewREST(d)
	store, err := cache.NewTiered(redisstore.NewResponseCache(client), 16, time.Minute, cache.SharedOnly(handler.RankingPath))
	require.NoError(t, err)
	return &env{
		t:        t,
		h:        h,
		router:   h.Routes(store, time.Minute),
		users:    users,
		missions: missions,
		producer: producer,
		tokens:   tokens,
		mr:       mr,
		store:    store,
	}
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// register creates a user and returns its id and token.
func (e *env) register(email string) (string, string) {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/v1/users/register", "", handler.RegisterRequest{
		Email: email, Password: "secret123", Name: "Test Driver",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp handler.TokenResponse
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.User.ID, resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	ok := newEnv(t, func(d *handler.Deps) {
		d.ReadyChecks = []telemetry.ReadyFunc{func(context.Context) error { return nil }}
	})
	assert.Equal(t, http.StatusOK, ok.do(http.MethodGet, "/readyz", "", nil).Code)

	down := newEnv(t, func(d *handler.Deps) {
		d.ReadyChecks = []telemetry.ReadyFunc{func(context.Context) error { return errors.New("pg down") }}
	})
	rec := down.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pg down")
}

// ── users ────────────────────────────────────────────────────────────────────

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)
	cases := map[string]handler.RegisterRequest{
		"bad email":      {Email: "not-an-email", Password: "secret123"},
		"short password": {Email: "a@b.co", Password: "123"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			rec := e.do(http.MethodPost, "/api/v1/users/register", "", req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := e.do(http.MethodPost, "/api/v1/users/register", "", map[string]any{"email": "a@b.co", "bogus": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newEnv(t)
	e.register("driver@example.com")

	rec := e.do(http.MethodPost, "/api/v1/users/register", "", handler.RegisterRequest{
		Email: "Driver@Example.com", Password: "secret123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	id, _ := e.register("driver@example.com")

	rec := e.do(http.MethodPost, "/api/v1/users/login", "", handler.LoginRequest{
		Email: "driver@example.com", Password: "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handler.TokenResponse](t, rec)
	assert.Equal(t, id, resp.User.ID)

	claims, err := e.tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
}

func TestLogin_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	e := newEnv(t)
	e.register("driver@example.com")

	wrong := e.do(http.MethodPost, "/api/v1/users/login", "", handler.LoginRequest{Email: "driver@example.com", Password: "nope-nope"})
	unknown := e.do(http.MethodPost, "/api/v1/users/login", "", handler.LoginRequest{Email: "ghost@example.com", Password: "nope-nope"})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, errorMessage(t, wrong), errorMessage(t, unknown))
}

func TestLogin_RateLimited(t *testing.T) {
	e := newEnv(t)
	e.register("driver@example.com")

	bad := handler.LoginRequest{Email: "driver@example.com", Password: "wrong-password"}
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/v1/users/login", "", bad).Code)
	}
	rec := e.do(http.MethodPost, "/api/v1/users/login", "", handler.LoginRequest{Email: "driver@example.com", Password: "secret123"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "even the right password waits out the window")
}

func TestProfile_RequiresToken(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/v1/users/profile", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/v1/users/profile", "garbage", nil).Code)
}

func TestProfile_LegacyHeader(t *testing.T) {
	e := newEnv(t)
	id, token := e.register("driver@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/profile", nil)
	req.Header.Set(middleware.HeaderAuthToken, token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[handler.ProfileResponse](t, rec).ID)
}

func TestCheckIn(t *testing.T) {
	e := newEnv(t)
	id, token := e.register("driver@example.com")
	e.users.byID[id].Streak = domain.StreakState{CurrentStreak: 6, LastCompletedDate: "2024-03-11"}

	rec := e.do(http.MethodPost, "/api/v1/users/streak", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handler.CheckInResponse](t, rec)
	assert.Equal(t, 7, resp.Streak.CurrentStreak)
	assert.Equal(t, 50, resp.Bonus, "seventh day earns the weekly bonus")
	assert.Equal(t, 50, resp.Points)

	again := decode[handler.CheckInResponse](t, e.do(http.MethodPost, "/api/v1/users/streak", token, nil))
	assert.True(t, again.AlreadyCheckedIn)
	assert.Equal(t, 50, again.Points)
	assert.Equal(t, []domain.EventType{domain.EventStreakUpdated}, e.producer.types())
}

func TestCheckIn_GapResets(t *testing.T) {
	e := newEnv(t)
	id, token := e.register("driver@example.com")
	e.users.byID[id].Streak = domain.StreakState{CurrentStreak: 4, LastCompletedDate: "2024-03-01"}

	resp := decode[handler.CheckInResponse](t, e.do(http.MethodPost, "/api/v1/users/streak", token, nil))
	assert.Equal(t, 1, resp.Streak.CurrentStreak)
	assert.Equal(t, 5, resp.Bonus)
}

// ── tasks ────────────────────────────────────────────────────────────────────

func TestListTasks_Cached(t *testing.T) {
	e := newEnv(t)

	first := e.do(http.MethodGet, "/api/v1/tasks", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(middleware.HeaderCache))
	assert.Len(t, decode[[]domain.Task](t, first), 9)

	second := e.do(http.MethodGet, "/api/v1/tasks", "", nil)
	assert.Equal(t, "HIT", second.Header().Get(middleware.HeaderCache))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestGetTask(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/v1/tasks/3", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/v1/tasks/99", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/v1/tasks/abc", "", nil).Code)
}

func TestCompleteTask(t *testing.T) {
	e := newEnv(t)
	_, token := e.register("driver@example.com")

	rec := e.do(http.MethodPost, "/api/v1/tasks/3/complete", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[handler.CompleteTaskResponse](t, rec)
	assert.True(t, resp.Task.Completed)
	assert.Equal(t, 5, resp.XP)
	assert.Equal(t, 5, resp.Points)
	assert.Equal(t, 1, resp.Streak.CurrentStreak, "the daily-drive task starts the streak")
	assert.Equal(t, []domain.EventType{domain.EventTaskCompleted, domain.EventStreakUpdated}, e.producer.types())

	dup := e.do(http.MethodPost, "/api/v1/tasks/3/complete", token, nil)
	assert.Equal(t, http.StatusConflict, dup.Code, "second completion on the same day")
}

func TestCompleteTask_Errors(t *testing.T) {
	e := newEnv(t)
	_, token := e.register("driver@example.com")

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/v1/tasks/99/complete", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/v1/tasks/6/complete", token, nil).Code,
		"task 6 unlocks on Friday")
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/v1/tasks/3/complete", "", nil).Code)
	assert.Empty(t, e.producer.types())
}

func TestTodayBoard(t *testing.T) {
	e := newEnv(t)
	_, token := e.register("driver@example.com")
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/tasks/3/complete", token, nil).Code)

	rec := e.do(http.MethodGet, "/api/v1/tasks/today", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[handler.BoardResponse](t, rec)

	assert.Equal(t, "2024-03-12", b.Date)
	assert.Equal(t, 3, b.Day)
	require.Len(t, b.Today, 1)
	assert.Equal(t, 3, b.Today[0].ID)
	assert.True(t, b.Today[0].Completed)
	assert.Equal(t, 5, b.XP)
	assert.InDelta(t, 1.0/9.0, b.CompletionRatio, 1e-9)
	assert.Equal(t, 1, b.Streak.CurrentStreak)
	for _, task := range b.Locked {
		assert.Greater(t, task.Day, 3)
	}
}

// ── missions & progress ──────────────────────────────────────────────────────

func TestLevelsAndMissions(t *testing.T) {
	e := newEnv(t)

	assert.Len(t, decode[[]domain.Level](t, e.do(http.MethodGet, "/api/v1/levels", "", nil)), 2)
	assert.Len(t, decode[[]domain.Mission](t, e.do(http.MethodGet, "/api/v1/missions", "", nil)), 3)
	assert.Len(t, decode[[]domain.Mission](t, e.do(http.MethodGet, "/api/v1/missions/level/1", "", nil)), 2)

	lvl := decode[handler.LevelResponse](t, e.do(http.MethodGet, "/api/v1/levels/2", "", nil))
	assert.Equal(t, "Advanced", lvl.Title)
	assert.Len(t, lvl.Missions, 1)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/v1/levels/9", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/v1/missions/level/9", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/v1/missions/1/9", "", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/v1/missions/1/2", "", nil).Code)
}

func TestCompleteMission(t *testing.T) {
	e := newEnv(t)
	_, token := e.register("driver@example.com")
	body := handler.CompleteMissionRequest{LevelID: 1, MissionID: 2}

	rec := e.do(http.MethodPost, "/api/v1/progress/missions/complete", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[handler.CompleteMissionResponse](t, rec)
	assert.Equal(t, domain.DefaultMissionPoints, first.Points, "missions without points award the default")

	again := e.do(http.MethodPost, "/api/v1/progress/missions/complete", token, body)
	require.Equal(t, http.StatusOK, again.Code)
	second := decode[handler.CompleteMissionResponse](t, again)
	assert.True(t, second.AlreadyCompleted)
	assert.Equal(t, first.Points, second.Points, "points are awarded once")

	assert.Equal(t, []domain.EventType{domain.EventMissionCompleted}, e.producer.types())

	missing := e.do(http.MethodPost, "/api/v1/progress/missions/complete", token, handler.CompleteMissionRequest{LevelID: 1, MissionID: 42})
	assert.Equal(t, http.StatusNotFound, missing.Code)
	invalid := e.do(http.MethodPost, "/api/v1/progress/missions/complete", token, map[string]int{"levelId": 1})
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}

func TestProgressSummaryRecent(t *testing.T) {
	e := newEnv(t)
	_, token := e.register("driver@example.com")
	for _, m := range []handler.CompleteMissionRequest{{LevelID: 1, MissionID: 1}, {LevelID: 2, MissionID: 1}} {
		require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/progress/missions/complete", token, m).Code)
	}

	assert.Len(t, decode[[]domain.MissionProgress](t, e.do(http.MethodGet, "/api/v1/progress", token, nil)), 2)

	sum := decode[handler.SummaryResponse](t, e.do(http.MethodGet, "/api/v1/progress/summary", token, nil))
	assert.Equal(t, 2, sum.Overall.Completed)
	assert.Equal(t, 3, sum.Overall.Total)

	recent := e.do(http.MethodGet, "/api/v1/progress/recent?limit=1", token, nil)
	require.Equal(t, http.StatusOK, recent.Code)
	assert.Len(t, decode[[]map[string]any](t, recent), 1)
}

func TestRanking_FallsBackToPostgres(t *testing.T) {
	e := newEnv(t)
	id, token := e.register("driver@example.com")
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/tasks/3/complete", token, nil).Code)

	ranking := decode[[]domain.RankEntry](t, e.do(http.MethodGet, "/api/v1/progress/ranking", "", nil))
	require.Len(t, ranking, 1)
	assert.Equal(t, id, ranking[0].UserID)
	assert.Equal(t, 5, ranking[0].Points)
}

func TestRanking_FromLeaderboard(t *testing.T) {
	e := newEnv(t)
	client := redisstore.NewClient(e.mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	board := redisstore.NewLeaderboard(client)
	require.NoError(t, board.SetPoints(context.Background(), "u-1", 40))
	require.NoError(t, board.SetPoints(context.Background(), "u-2", 90))

	ranking := decode[[]domain.RankEntry](t, e.do(http.MethodGet, "/api/v1/progress/ranking?limit=1", "", nil))
	require.Len(t, ranking, 1)
	assert.Equal(t, "u-2", ranking[0].UserID)
}

func TestRanking_FreshAfterSharedInvalidation(t *testing.T) {
	e := newEnv(t)
	_, token := e.register("driver@example.com")

	before := decode[[]domain.RankEntry](t, e.do(http.MethodGet, handler.RankingPath, "", nil))
	require.Len(t, before, 1)
	assert.Zero(t, before[0].Points)
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/tasks/3/complete", token, nil).Code)

	// The worker only reaches the shared Redis tier.
	client := redisstore.NewClient(e.mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	_, err := redisstore.NewResponseCache(client).InvalidatePrefix(context.Background(), handler.RankingPath)
	require.NoError(t, err)

	rec := e.do(http.MethodGet, handler.RankingPath, "", nil)
	assert.Equal(t, "MISS", rec.Header().Get(middleware.HeaderCache))
	after := decode[[]domain.RankEntry](t, rec)
	require.Len(t, after, 1)
	assert.Equal(t, 5, after[0].Points)
}

// ── features ─────────────────────────────────────────────────────────────────

func TestFeatures(t *testing.T) {
	e := newEnv(t)

	all := decode[[]domain.Feature](t, e.do(http.MethodGet, "/api/v1/features", "", nil))
	require.NotEmpty(t, all)

	for _, f := range decode[[]domain.Feature](t, e.do(http.MethodGet, "/api/v1/features/featured", "", nil)) {
		assert.True(t, f.Featured)
	}
	for _, f := range decode[[]domain.Feature](t, e.do(http.MethodGet, "/api/v1/features/category/driving", "", nil)) {
		assert.Equal(t, "driving", f.Category)
	}

	one := decode[domain.Feature](t, e.do(http.MethodGet, "/api/v1/features/one-pedal", "", nil))
	assert.Equal(t, "one-pedal", one.ID)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/v1/features/warp-drive", "", nil).Code)
}

func TestFeatures_FieldProjection(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodGet, "/api/v1/features?fields=title,category", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, f := range decode[[]map[string]any](t, rec) {
		assert.Len(t, f, 3)
		assert.Contains(t, f, "id")
		assert.Contains(t, f, "title")
		assert.Contains(t, f, "category")
	}
}

// ── rewards ──────────────────────────────────────────────────────────────────

func TestRewards(t *testing.T) {
	e := newEnv(t)
	id, token := e.register("driver@example.com")
	e.users.byID[id].Points = 120

	list := decode[handler.RewardsResponse](t, e.do(http.MethodGet, "/api/v1/rewards", token, nil))
	assert.Equal(t, 120, list.XP)
	require.Len(t, list.Rewards, 3)
	assert.True(t, list.Rewards[1].Claimable)
	assert.False(t, list.Rewards[2].Claimable)

	assert.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/rewards/2/claim", token, nil).Code)
	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/api/v1/rewards/2/claim", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/v1/rewards/3/claim", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/v1/rewards/77/claim", token, nil).Code)
	assert.Equal(t, []domain.EventType{domain.EventRewardClaimed}, e.producer.types())

	after := decode[handler.RewardsResponse](t, e.do(http.MethodGet, "/api/v1/rewards", token, nil))
	assert.True(t, after.Rewards[1].Claimed)
	assert.False(t, after.Rewards[1].Claimable)
}

// ── game ─────────────────────────────────────────────────────────────────────

// tapAt taps a 1000x1000 view of a 1000x1000 image, so container pixels
// equal image pixels.
func tapAt(x, y float64) handler.TapRequest {
	return handler.TapRequest{
		X: x, Y: y,
		Container: hotspotSize(1000, 1000),
		Image:     hotspotSize(1000, 1000),
	}
}

func TestGame_PlaysThroughFirstLevel(t *testing.T) {
	e := newEnv(t)
	_, token := e.register("driver@example.com")

	start := e.do(http.MethodPost, "/api/v1/game/sessions", token, nil)
	require.Equal(t, http.StatusCreated, start.Code)
	sess := decode[handler.SessionView](t, start)
	require.NotNil(t, sess.Level)
	assert.Equal(t, 1, sess.Level.ID)
	path := "/api/v1/game/sessions/" + sess.ID + "/taps"

	miss := decode[handler.TapResponse](t, e.do(http.MethodPost, path, token, tapAt(10, 10)))
	assert.False(t, miss.Hit)
	assert.Nil(t, miss.Marker)

	first := decode[handler.TapResponse](t, e.do(http.MethodPost, path, token, tapAt(550, 400)))
	assert.True(t, first.Hit)
	require.NotNil(t, first.Marker)
	assert.InDelta(t, 550, first.Marker.X, 1e-9)
	assert.InDelta(t, 400, first.Marker.Y, 1e-9)
	assert.False(t, first.LevelCompleted)
	assert.Equal(t, "awaiting_second_hotspot", first.Session.Phase)

	second := decode[handler.TapResponse](t, e.do(http.MethodPost, path, token, tapAt(790, 670)))
	assert.True(t, second.Hit)
	assert.True(t, second.LevelCompleted)
	assert.Equal(t, 1, second.Session.LevelIndex)
	require.NotNil(t, second.Session.Level)
	assert.Equal(t, 2, second.Session.Level.ID)

	got := decode[handler.SessionView](t, e.do(http.MethodGet, "/api/v1/game/sessions/"+sess.ID, token, nil))
	assert.Equal(t, 1, got.LevelIndex)
	assert.Equal(t, "awaiting_first_hotspot", got.Phase)
}

func TestGame_DegenerateViewIsMiss(t *testing.T) {
	e := newEnv(t)
	_, token := e.register("driver@example.com")
	sess := decode[handler.SessionView](t, e.do(http.MethodPost, "/api/v1/game/sessions", token, nil))

	req := tapAt(550, 400)
	req.Image = hotspotSize(0, 0)
	resp := decode[handler.TapResponse](t, e.do(http.MethodPost, "/api/v1/game/sessions/"+sess.ID+"/taps", token, req))
	assert.False(t, resp.Hit)
	assert.Equal(t, "awaiting_first_hotspot", resp.Session.Phase)
}

func TestGame_OtherUsersSessionIsNotFound(t *testing.T) {
	e := newEnv(t)
	_, owner := e.register("owner@example.com")
	_, other := e.register("other@example.com")
	sess := decode[handler.SessionView](t, e.do(http.MethodPost, "/api/v1/game/sessions", owner, nil))

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/v1/game/sessions/"+sess.ID, other, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/v1/game/sessions/nope", owner, nil).Code)
}

func TestGameLevels(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodGet, "/api/v1/game/levels", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 3)
}

func hotspotSize(w, h float64) hotspot.Size { return hotspot.Size{Width: w, Height: h} }
