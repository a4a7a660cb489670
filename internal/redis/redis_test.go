package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestStreakStore_RoundTrip(t *testing.T) {
	mr, c := newTestClient(t)
	s := NewStreakStore(c)
	ctx := context.Background()

	st, err := s.LoadStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StreakState{}, st)

	want := domain.StreakState{CurrentStreak: 3, LastCompletedDate: "2024-05-02"}
	require.NoError(t, s.SaveStreak(ctx, "u1", want))

	got, err := s.LoadStreak(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	v, err := mr.Get("streak:u1:currentStreak")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestStreakStore_CorruptCount(t *testing.T) {
	mr, c := newTestClient(t)
	require.NoError(t, mr.Set("streak:u1:currentStreak", "three"))

	_, err := NewStreakStore(c).LoadStreak(context.Background(), "u1")
	assert.Error(t, err)
}

func TestStreakStore_HalfWrittenStateIsZero(t *testing.T) {
	mr, c := newTestClient(t)
	require.NoError(t, mr.Set("streak:u1:currentStreak", "4"))

	st, err := NewStreakStore(c).LoadStreak(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StreakState{}, st)
}

func TestResponseCache(t *testing.T) {
	mr, c := newTestClient(t)
	rc := NewResponseCache(c)
	ctx := context.Background()

	_, ok, err := rc.Get(ctx, "/api/v1/tasks")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.Set(ctx, "/api/v1/tasks", []byte(`[1]`), 0))
	require.NoError(t, rc.Set(ctx, "/api/v1/tasks/1", []byte(`{}`), 0))
	require.NoError(t, rc.Set(ctx, "/api/v1/features", []byte(`[]`), time.Minute))

	body, ok, err := rc.Get(ctx, "/api/v1/tasks")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[1]`, string(body))
	assert.Equal(t, DefaultResponseTTL, mr.TTL("api:/api/v1/tasks"))

	n, err := rc.InvalidatePrefix(ctx, "/api/v1/tasks")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("api:/api/v1/features"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = rc.Get(ctx, "/api/v1/features")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGameSessionStore(t *testing.T) {
	mr, c := newTestClient(t)
	s := NewGameSessionStore(c)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	var nf *domain.GameSessionNotFoundError
	require.True(t, errors.As(err, &nf))

	sess := &domain.GameSession{ID: "g1", UserID: "u1", LevelIndex: 1, Phase: "awaiting_second_hotspot"}
	require.NoError(t, s.Save(ctx, sess))
	assert.Equal(t, sessionTTL, mr.TTL("game:session:g1"))

	got, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, sess.LevelIndex, got.LevelIndex)
	assert.Equal(t, sess.Phase, got.Phase)
}

func TestLeaderboard(t *testing.T) {
	_, c := newTestClient(t)
	lb := NewLeaderboard(c)
	ctx := context.Background()

	require.NoError(t, lb.SetPoints(ctx, "a", 10))
	require.NoError(t, lb.SetPoints(ctx, "b", 30))
	require.NoError(t, lb.SetPoints(ctx, "c", 20))
	require.NoError(t, lb.SetPoints(ctx, "b", 5), "stale lower total")

	top, err := lb.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, domain.RankEntry{UserID: "b", Points: 30}, top[0])
	assert.Equal(t, "c", top[1].UserID)

	r, err := lb.Rank(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, r)

	r, err = lb.Rank(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, r)
}

func TestRateLimiter(t *testing.T) {
	_, c := newTestClient(t)
	rl := NewRateLimiter(c, "login", 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "a@b.c")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "a@b.c")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rl.Allow(ctx, "other@b.c")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	require.NoError(t, rl.Reset(ctx, "a@b.c"))
	ok, err = rl.Allow(ctx, "a@b.c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessedSet(t *testing.T) {
	mr, c := newTestClient(t)
	s := NewProcessedSet(c)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "ev-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkProcessed(ctx, "ev-1"))
	seen, err = s.Seen(ctx, "ev-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, processedTTL, mr.TTL(processedKey("ev-1")))

	mr.FastForward(processedTTL + time.Second)
	seen, err = s.Seen(ctx, "ev-1")
	require.NoError(t, err)
	assert.False(t, seen)
}
