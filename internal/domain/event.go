package domain

import (
	"encoding/json"
	"time"
)

// EventType names a progress event published to Kafka.
type EventType string

const (
	EventTaskCompleted    EventType = "task.completed"
	EventMissionCompleted EventType = "mission.completed"
	EventStreakUpdated    EventType = "streak.updated"
	EventRewardClaimed    EventType = "reward.claimed"
	EventDayRollover      EventType = "day.rollover"
)

// Event is the envelope published on the progress topic.
type Event struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	UserID     string          `json:"user_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// PointsPayload is carried by events that change a user's points.
type PointsPayload struct {
	Points      int    `json:"points"`
	TotalPoints int    `json:"total_points"`
	Ref         string `json:"ref,omitempty"`
}

// RolloverPayload is carried by day.rollover events.
type RolloverPayload struct {
	Day string `json:"day"`
}

// StreakPayload is carried by streak.updated events.
type StreakPayload struct {
	CurrentStreak int    `json:"current_streak"`
	Day           string `json:"day"`
	Bonus         int    `json:"bonus"`
	TotalPoints   int    `json:"total_points"`
}

// RewardPayload is carried by reward.claimed events.
type RewardPayload struct {
	RewardID string `json:"reward_id"`
	Title    string `json:"title"`
	Email    string `json:"email,omitempty"`
	XP       int    `json:"xp"`
}
