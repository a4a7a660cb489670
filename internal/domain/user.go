package domain

import "time"

// User is a registered owner.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name,omitempty"`
	PasswordHash string      `json:"-"`
	Points       int         `json:"points"`
	Streak       StreakState `json:"streak"`
	CreatedAt    time.Time   `json:"created_at"`
	LastLoginAt  *time.Time  `json:"last_login_at,omitempty"`
}

// Level groups missions.
type Level struct {
	ID          int    `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// DefaultMissionPoints is awarded when a mission does not define its own points.
const DefaultMissionPoints = 10

// Mission is identified by the pair (LevelID, MissionID).
type Mission struct {
	LevelID     int    `json:"levelId" yaml:"level_id"`
	MissionID   int    `json:"missionId" yaml:"mission_id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Points      int    `json:"points" yaml:"points"`
	Unlocked    bool   `json:"unlocked" yaml:"unlocked"`
}

// AwardedPoints returns the mission's points, falling back to DefaultMissionPoints.
func (m Mission) AwardedPoints() int {
	if m.Points > 0 {
		return m.Points
	}
	return DefaultMissionPoints
}

// MissionProgress is a user's completion record for one mission.
type MissionProgress struct {
	UserID      string     `json:"user_id"`
	LevelID     int        `json:"levelId"`
	MissionID   int        `json:"missionId"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// LevelSummary aggregates a user's mission progress within one level.
type LevelSummary struct {
	LevelID   int     `json:"levelId"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// RankEntry is one row of the points ranking.
type RankEntry struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Points int    `json:"points"`
	Streak int    `json:"currentStreak"`
}

// GameSession is a user's position in the learning-game course.
type GameSession struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	LevelIndex int       `json:"levelIndex"`
	Phase      string    `json:"phase"`
	Complete   bool      `json:"complete"`
	StartedAt  time.Time `json:"startedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
