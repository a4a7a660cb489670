package domain

import "time"

// DefaultTaskIcon is used when a catalog entry has no icon.
const DefaultTaskIcon = "📌"

// Task is a daily task from the static catalog.
type Task struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Points    int    `json:"points"`
	Day       int    `json:"day"`
	Level     int    `json:"level"`
	Completed bool   `json:"completed"`
	Icon      string `json:"icon,omitempty"`
}

// StreakState is the day-streak counter of a single user.
// LastCompletedDate is a YYYY-MM-DD calendar date, empty meaning "never".
type StreakState struct {
	CurrentStreak     int    `json:"currentStreak"`
	LastCompletedDate string `json:"lastCompletedDate,omitempty"`
}

// TaskCompletion records that a user completed a task on a calendar day.
type TaskCompletion struct {
	UserID string    `json:"user_id"`
	TaskID int       `json:"task_id"`
	Day    string    `json:"day"`
	Points int       `json:"points"`
	At     time.Time `json:"completed_at"`
}

// Reward can be claimed once the user's XP reaches XPRequired.
type Reward struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	XPRequired  int    `json:"xpRequired" yaml:"xp_required"`
}

// Feature is a vehicle feature shown in the catalog.
type Feature struct {
	ID              string        `json:"id" yaml:"id"`
	Title           string        `json:"title" yaml:"title"`
	Description     string        `json:"description" yaml:"description"`
	FullDescription string        `json:"fullDescription,omitempty" yaml:"full_description"`
	Image           string        `json:"image" yaml:"image"`
	Category        string        `json:"category" yaml:"category"`
	Featured        bool          `json:"featured" yaml:"featured"`
	Details         string        `json:"details,omitempty" yaml:"details"`
	Specs           []FeatureSpec `json:"specs,omitempty" yaml:"specs"`
}

// FeatureSpec is a single name/value specification line.
type FeatureSpec struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// GlossaryTerm is one entry of the vehicle glossary. RelatedTerms hold the
// ids of other entries.
type GlossaryTerm struct {
	ID           string   `json:"id" yaml:"id"`
	Term         string   `json:"term" yaml:"term"`
	Definition   string   `json:"definition" yaml:"definition"`
	Category     string   `json:"category" yaml:"category"`
	Examples     []string `json:"examples,omitempty" yaml:"examples"`
	RelatedTerms []string `json:"relatedTerms,omitempty" yaml:"related_terms"`
}

// Warning light colours and severities.
const (
	WarningRed   = "red"
	WarningAmber = "amber"
	WarningGreen = "green"

	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// WarningLight explains a dashboard control lamp.
type WarningLight struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Color          string   `json:"color" yaml:"color"`
	Severity       string   `json:"severity" yaml:"severity"`
	ActionRequired string   `json:"actionRequired,omitempty" yaml:"action_required"`
	Tags           []string `json:"tags,omitempty" yaml:"tags"`
}
