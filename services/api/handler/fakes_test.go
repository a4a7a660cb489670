package handler_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/kafka"
	"github.com/ramiqadoumi/go-drive-quest/internal/postgres"
)

// ── users ────────────────────────────────────────────────────────────────────

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]*domain.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[string]*domain.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return &domain.EmailTakenError{Email: u.Email}
		}
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, &domain.UserNotFoundError{Ref: id}
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &domain.UserNotFoundError{Ref: email}
}

func (f *fakeUsers) TouchLogin(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (f *fakeUsers) UpdateCheckIn(_ context.Context, id string, s domain.StreakState, prevDate string, bonus int) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || u.Streak.LastCompletedDate != prevDate {
		return false, 0, nil
	}
	u.Streak = s
	u.Points += bonus
	return true, u.Points, nil
}

func (f *fakeUsers) Ranking(_ context.Context, limit int) ([]domain.RankEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RankEntry
	for _, u := range f.byID {
		out = append(out, domain.RankEntry{UserID: u.ID, Name: u.Name, Points: u.Points, Streak: u.Streak.CurrentStreak})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUsers) addPoints(id string, n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.byID[id]
	u.Points += n
	return u.Points
}

// ── completions ──────────────────────────────────────────────────────────────

type fakeCompletions struct {
	users *fakeUsers
	rows  map[string]domain.TaskCompletion
}

func newFakeCompletions(users *fakeUsers) *fakeCompletions {
	return &fakeCompletions{users: users, rows: map[string]domain.TaskCompletion{}}
}

func (f *fakeCompletions) Record(_ context.Context, c *domain.TaskCompletion) (bool, int, error) {
	key := fmt.Sprintf("%s|%d|%s", c.UserID, c.TaskID, c.Day)
	if _, dup := f.rows[key]; dup {
		return false, f.users.addPoints(c.UserID, 0), nil
	}
	f.rows[key] = *c
	return true, f.users.addPoints(c.UserID, c.Points), nil
}

func (f *fakeCompletions) CompletedBetween(_ context.Context, userID, from, to string) (map[int]bool, error) {
	out := map[int]bool{}
	for _, c := range f.rows {
		if c.UserID == userID && (from == "" || c.Day >= from) && c.Day <= to {
			out[c.TaskID] = true
		}
	}
	return out, nil
}

// ── missions ─────────────────────────────────────────────────────────────────

type fakeMissions struct {
	users    *fakeUsers
	levels   []domain.Level
	missions []domain.Mission
	done     map[string]domain.MissionProgress
}

func newFakeMissions(users *fakeUsers) *fakeMissions {
	return &fakeMissions{
		users:  users,
		levels: []domain.Level{{ID: 1, Title: "Basics"}, {ID: 2, Title: "Advanced"}},
		missions: []domain.Mission{
			{LevelID: 1, MissionID: 1, Title: "Open the app", Points: 15, Unlocked: true},
			{LevelID: 1, MissionID: 2, Title: "Lock the car remotely"},
			{LevelID: 2, MissionID: 1, Title: "Schedule charging", Points: 30},
		},
		done: map[string]domain.MissionProgress{},
	}
}

func (f *fakeMissions) Seed(context.Context, []domain.Level, []domain.Mission) error { return nil }
func (f *fakeMissions) Levels(context.Context) ([]domain.Level, error)               { return f.levels, nil }

func (f *fakeMissions) Level(_ context.Context, id int) (*domain.Level, error) {
	for _, l := range f.levels {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, &domain.LevelNotFoundError{LevelID: id}
}

func (f *fakeMissions) Missions(_ context.Context, levelID int) ([]domain.Mission, error) {
	var out []domain.Mission
	for _, m := range f.missions {
		if levelID == 0 || m.LevelID == levelID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMissions) Mission(_ context.Context, levelID, missionID int) (*domain.Mission, error) {
	for _, m := range f.missions {
		if m.LevelID == levelID && m.MissionID == missionID {
			return &m, nil
		}
	}
	return nil, &domain.MissionNotFoundError{LevelID: levelID, MissionID: missionID}
}

func (f *fakeMissions) Complete(_ context.Context, userID string, m *domain.Mission, at time.Time) (bool, int, error) {
	key := fmt.Sprintf("%s|%d|%d", userID, m.LevelID, m.MissionID)
	if _, dup := f.done[key]; dup {
		return false, f.users.addPoints(userID, 0), nil
	}
	f.done[key] = domain.MissionProgress{UserID: userID, LevelID: m.LevelID, MissionID: m.MissionID, Completed: true, CompletedAt: &at}
	return true, f.users.addPoints(userID, m.AwardedPoints()), nil
}

func (f *fakeMissions) Progress(_ context.Context, userID string) ([]domain.MissionProgress, error) {
	var out []domain.MissionProgress
	for _, p := range f.done {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeMissions) Summary(ctx context.Context, userID string) (domain.LevelSummary, []domain.LevelSummary, error) {
	p, _ := f.Progress(ctx, userID)
	return domain.LevelSummary{Completed: len(p), Total: len(f.missions)}, nil, nil
}

func (f *fakeMissions) Recent(ctx context.Context, userID string, limit int) ([]postgres.RecentMission, error) {
	p, _ := f.Progress(ctx, userID)
	var out []postgres.RecentMission
	for _, mp := range p {
		if len(out) == limit {
			break
		}
		out = append(out, postgres.RecentMission{MissionProgress: mp})
	}
	return out, nil
}

// ── rewards ──────────────────────────────────────────────────────────────────

type fakeRewards struct {
	claimed map[string]map[string]bool
}

func newFakeRewards() *fakeRewards { return &fakeRewards{claimed: map[string]map[string]bool{}} }

func (f *fakeRewards) Claimed(_ context.Context, userID string) (map[string]bool, error) {
	out := map[string]bool{}
	for id := range f.claimed[userID] {
		out[id] = true
	}
	return out, nil
}

func (f *fakeRewards) Claim(_ context.Context, userID, rewardID string, _ time.Time) error {
	if f.claimed[userID][rewardID] {
		return &domain.AlreadyCompletedError{What: "reward", ID: rewardID}
	}
	if f.claimed[userID] == nil {
		f.claimed[userID] = map[string]bool{}
	}
	f.claimed[userID][rewardID] = true
	return nil
}

// ── kafka ────────────────────────────────────────────────────────────────────

type fakeProducer struct {
	mu     sync.Mutex
	events []domain.EventType
}

func (p *fakeProducer) Publish(_ context.Context, _, _ string, _ []byte, headers ...kafka.Header) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range headers {
		if h.Key == "event-type" {
			p.events = append(p.events, domain.EventType(h.Value))
		}
	}
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.EventType(nil), p.events...)
}
