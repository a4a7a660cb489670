package domain

import "fmt"

// TaskNotFoundError is returned when a task ID does not exist in the catalog.
type TaskNotFoundError struct {
	TaskID int
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %d", e.TaskID)
}

// TaskNotAvailableError is returned when a task is completed before the day it unlocks.
type TaskNotAvailableError struct {
	TaskID int
	Day    int
	Today  int
}

func (e *TaskNotAvailableError) Error() string {
	return fmt.Sprintf("task %d unlocks on day %d, today is day %d", e.TaskID, e.Day, e.Today)
}

// AlreadyCompletedError is returned when a task or mission was already completed.
type AlreadyCompletedError struct {
	What string
	ID   string
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("%s %s already completed", e.What, e.ID)
}

// MissionNotFoundError is returned when a (level, mission) pair does not exist.
type MissionNotFoundError struct {
	LevelID   int
	MissionID int
}

func (e *MissionNotFoundError) Error() string {
	return fmt.Sprintf("mission %d not found in level %d", e.MissionID, e.LevelID)
}

// LevelNotFoundError is returned when a level ID does not exist.
type LevelNotFoundError struct {
	LevelID int
}

func (e *LevelNotFoundError) Error() string {
	return fmt.Sprintf("level not found: %d", e.LevelID)
}

// UserNotFoundError is returned when a user ID or email does not exist.
type UserNotFoundError struct {
	Ref string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user not found: %s", e.Ref)
}

// EmailTakenError is returned on registration with an existing email.
type EmailTakenError struct {
	Email string
}

func (e *EmailTakenError) Error() string {
	return fmt.Sprintf("email %q is already registered", e.Email)
}

// InvalidCredentialsError is returned when login fails. It deliberately
// does not say which part was wrong.
type InvalidCredentialsError struct{}

func (e *InvalidCredentialsError) Error() string { return "invalid credentials" }

// RewardNotFoundError is returned when a reward ID does not exist.
type RewardNotFoundError struct {
	RewardID string
}

func (e *RewardNotFoundError) Error() string {
	return fmt.Sprintf("reward not found: %s", e.RewardID)
}

// RewardLockedError is returned when a reward is claimed with too little XP.
type RewardLockedError struct {
	RewardID   string
	XPRequired int
	XP         int
}

func (e *RewardLockedError) Error() string {
	return fmt.Sprintf("reward %s requires %d XP, have %d", e.RewardID, e.XPRequired, e.XP)
}

// FeatureNotFoundError is returned when a feature ID does not exist.
type FeatureNotFoundError struct {
	FeatureID string
}

func (e *FeatureNotFoundError) Error() string {
	return fmt.Sprintf("feature not found: %s", e.FeatureID)
}

// GlossaryTermNotFoundError is returned when a glossary id does not exist.
type GlossaryTermNotFoundError struct {
	TermID string
}

func (e *GlossaryTermNotFoundError) Error() string {
	return fmt.Sprintf("glossary term not found: %s", e.TermID)
}

// WarningNotFoundError is returned when a warning light id does not exist.
type WarningNotFoundError struct {
	WarningID string
}

func (e *WarningNotFoundError) Error() string {
	return fmt.Sprintf("warning light not found: %s", e.WarningID)
}

// GameSessionNotFoundError is returned when a learning-game session is unknown or expired.
type GameSessionNotFoundError struct {
	SessionID string
}

func (e *GameSessionNotFoundError) Error() string {
	return fmt.Sprintf("game session not found: %s", e.SessionID)
}

// UnhandledEventError is returned when no handler is registered for an event type.
type UnhandledEventError struct {
	Type EventType
}

func (e *UnhandledEventError) Error() string {
	return fmt.Sprintf("no handler registered for event type %q", e.Type)
}
