package progress

import (
	"context"
	"log/slog"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// DefaultStreakTaskID is the catalog task whose completion advances the streak.
const DefaultStreakTaskID = 3

// StreakStore persists a user's streak state. Implementations are expected to
// be slow or unavailable at times; the Tracker never fails because of them.
type StreakStore interface {
	LoadStreak(ctx context.Context, userID string) (domain.StreakState, error)
	SaveStreak(ctx context.Context, userID string, state domain.StreakState) error
}

// Tracker holds one user's task list and streak for the duration of a
// request or session, persisting streak changes through a StreakStore.
type Tracker struct {
	userID       string
	tasks        []domain.Task
	streak       domain.StreakState
	streakTaskID int
	store        StreakStore
	logger       *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithStreakTask makes id the task whose completion advances the streak.
// The default is DefaultStreakTaskID.
func WithStreakTask(id int) TrackerOption { return func(t *Tracker) { t.streakTaskID = id } }

// WithTrackerLogger sets the logger used for store failures.
func WithTrackerLogger(l *slog.Logger) TrackerOption { return func(t *Tracker) { t.logger = l } }

// CompletionResult describes what a Complete call changed.
type CompletionResult struct {
	Task          domain.Task        `json:"task"`
	Found         bool               `json:"found"`
	Changed       bool               `json:"changed"`
	StreakChanged bool               `json:"streakChanged"`
	Streak        domain.StreakState `json:"streak"`
	XP            int                `json:"xp"`
}

// NewTracker loads the user's streak from store. A load failure is logged and
// the tracker starts from the zero streak.
func NewTracker(ctx context.Context, userID string, tasks []domain.Task, store StreakStore, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		userID:       userID,
		tasks:        tasks,
		streakTaskID: DefaultStreakTaskID,
		store:        store,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.store != nil {
		s, err := t.store.LoadStreak(ctx, userID)
		if err != nil {
			t.logger.Warn("load streak failed, starting from zero",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		} else {
			t.streak = s
		}
	}
	return t
}

// Tasks returns the current task list. Callers must not modify it.
func (t *Tracker) Tasks() []domain.Task { return t.tasks }

// Streak returns the in-memory streak, which may be ahead of the store.
func (t *Tracker) Streak() domain.StreakState { return t.streak }

// XP is XPEarned over the current tasks.
func (t *Tracker) XP() int { return XPEarned(t.tasks) }

// Ratio is CompletionRatio over the current tasks.
func (t *Tracker) Ratio() float64 { return CompletionRatio(t.tasks) }

// Complete marks taskID completed on today. Completing the streak-bearing
// task also advances the streak, once per day, and persists it.
func (t *Tracker) Complete(ctx context.Context, taskID int, today string) CompletionResult {
	before, found := FindTask(t.tasks, taskID)
	if !found {
		return CompletionResult{Streak: t.streak, XP: t.XP()}
	}

	t.tasks = CompleteTask(t.tasks, taskID)
	after, _ := FindTask(t.tasks, taskID)
	res := CompletionResult{
		Task:    after,
		Found:   true,
		Changed: !before.Completed,
	}

	if taskID == t.streakTaskID {
		next := RecordStreakTaskCompletion(t.streak, today)
		if next != t.streak {
			t.streak = next
			res.StreakChanged = true
			t.persist(ctx)
		}
	}

	res.Streak = t.streak
	res.XP = t.XP()
	return res
}

func (t *Tracker) persist(ctx context.Context) {
	if t.store == nil {
		return
	}
	if err := t.store.SaveStreak(ctx, t.userID, t.streak); err != nil {
		// Best-effort: the in-memory state stays authoritative for this session.
		t.logger.Error("save streak failed",
			slog.String("user_id", t.userID),
			slog.Int("current_streak", t.streak.CurrentStreak),
			slog.String("error", err.Error()),
		)
	}
}
