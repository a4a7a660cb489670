// Package progress computes task completion, XP and day streaks.
//
// Every function here is pure: state comes in as arguments and leaves as
// return values, and "today" is always supplied by the caller.
package progress

import (
	"time"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// DateLayout is the calendar date format used for streak dates.
const DateLayout = "2006-01-02"

// Check-in bonus points, see StreakBonus.
const (
	DailyStreakBonus  = 5
	WeeklyStreakBonus = 50
)

// CompletionRatio returns the fraction of completed tasks, or 0 for no tasks.
func CompletionRatio(tasks []domain.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return float64(done) / float64(len(tasks))
}

// XPEarned sums the points of completed tasks.
func XPEarned(tasks []domain.Task) int {
	xp := 0
	for _, t := range tasks {
		if t.Completed {
			xp += t.Points
		}
	}
	return xp
}

// CompleteTask returns a copy of tasks with taskID marked completed.
// An unknown ID returns the input slice itself, so callers can detect the
// miss by comparing states.
func CompleteTask(tasks []domain.Task, taskID int) []domain.Task {
	idx := -1
	for i, t := range tasks {
		if t.ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return tasks
	}

	out := make([]domain.Task, len(tasks))
	copy(out, tasks)
	out[idx].Completed = true
	return out
}

// FindTask returns the task with the given ID.
func FindTask(tasks []domain.Task, taskID int) (domain.Task, bool) {
	for _, t := range tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return domain.Task{}, false
}

// RecordStreakTaskCompletion applies one streak-bearing completion on today
// (YYYY-MM-DD) and returns the new state. The input is never modified.
func RecordStreakTaskCompletion(state domain.StreakState, today string) domain.StreakState {
	if state.LastCompletedDate == today {
		return state
	}
	if state.LastCompletedDate == "" || state.LastCompletedDate == Yesterday(today) {
		return domain.StreakState{
			CurrentStreak:     state.CurrentStreak + 1,
			LastCompletedDate: today,
		}
	}
	return domain.StreakState{CurrentStreak: 1, LastCompletedDate: today}
}

// Yesterday returns the calendar day before date. Dates that do not parse
// yield "", which never equals a stored date.
func Yesterday(date string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, -1).Format(DateLayout)
}

// Today formats t as a calendar date in loc.
func Today(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// Weekday returns the catalog day number of date: Sunday is 1, Saturday is 7.
// It returns 0 when the date does not parse.
func Weekday(date string) int {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0
	}
	return int(d.Weekday()) + 1
}

// StreakBonus returns the points awarded for reaching newStreak:
// a weekly bonus on every seventh day, the daily bonus otherwise.
func StreakBonus(newStreak int) int {
	if newStreak > 0 && newStreak%7 == 0 {
		return WeeklyStreakBonus
	}
	return DailyStreakBonus
}

