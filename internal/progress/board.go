package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// ResetPolicy decides how long a task completion stays on the board.
type ResetPolicy string

const (
	// ResetNone keeps completions forever.
	ResetNone ResetPolicy = "none"
	// ResetDaily clears the board when the calendar day changes.
	ResetDaily ResetPolicy = "daily"
	// ResetWeekly clears the board every Sunday, the first catalog day.
	ResetWeekly ResetPolicy = "weekly"
)

// ParseResetPolicy accepts "none", "daily" or "weekly" (case-insensitive).
// Empty means none.
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch p := ResetPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", ResetNone:
		return ResetNone, nil
	case ResetDaily, ResetWeekly:
		return p, nil
	default:
		return "", fmt.Errorf("invalid reset policy %q: want none, daily or weekly", s)
	}
}

// WeekStart returns the Sunday (catalog day 1) of date's week, or "" when
// date does not parse.
func WeekStart(date string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, -int(d.Weekday())).Format(DateLayout)
}

// WindowStart is the first day whose completions still show on today's
// board. "" means there is no lower bound.
func WindowStart(policy ResetPolicy, today string) string {
	switch policy {
	case ResetDaily:
		return today
	case ResetWeekly:
		return WeekStart(today)
	default:
		return ""
	}
}

// Board splits the catalog relative to the current day.
type Board struct {
	Today    []domain.Task `json:"today"`
	Unlocked []domain.Task `json:"unlocked"`
	Locked   []domain.Task `json:"locked"`
}

// Partition groups tasks into today's, unlocked-but-open and locked tasks.
func Partition(tasks []domain.Task, currentDay int) Board {
	var b Board
	for _, t := range tasks {
		if t.Day == currentDay {
			b.Today = append(b.Today, t)
		}
		switch {
		case t.Day > currentDay:
			b.Locked = append(b.Locked, t)
		case !t.Completed:
			b.Unlocked = append(b.Unlocked, t)
		}
	}
	return b
}

// MarkCompleted returns a copy of tasks with every ID in done completed.
func MarkCompleted(tasks []domain.Task, done map[int]bool) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		if done[t.ID] {
			t.Completed = true
		}
		out[i] = t
	}
	return out
}

// RewardState is a reward together with the user's standing on it.
type RewardState struct {
	domain.Reward
	Claimable bool `json:"claimable"`
	Claimed   bool `json:"claimed"`
}

// RewardStatus reports, for each reward, whether xp unlocks it and whether it
// has been claimed already.
func RewardStatus(rewards []domain.Reward, xp int, claimed map[string]bool) []RewardState {
	out := make([]RewardState, 0, len(rewards))
	for _, r := range rewards {
		c := claimed[r.ID]
		out = append(out, RewardState{
			Reward:    r,
			Claimed:   c,
			Claimable: !c && xp >= r.XPRequired,
		})
	}
	return out
}
