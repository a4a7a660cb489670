package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/pkg/retry"
)

// PointsSetter is the slice of the leaderboard the handler needs.
type PointsSetter interface {
	SetPoints(ctx context.Context, userID string, points int) error
}

// LeaderboardHandler copies a user's new point total into the ranking.
type LeaderboardHandler struct {
	board PointsSetter
}

func NewLeaderboardHandler(board PointsSetter) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

func (h *LeaderboardHandler) Name() string { return "leaderboard" }

func (h *LeaderboardHandler) EventTypes() []domain.EventType {
	return []domain.EventType{
		domain.EventTaskCompleted,
		domain.EventMissionCompleted,
		domain.EventStreakUpdated,
	}
}

func (h *LeaderboardHandler) Handle(ctx context.Context, ev *domain.Event) error {
	ctx, span := otel.Tracer("worker").Start(ctx, "handler.leaderboard")
	defer span.End()

	if ev.UserID == "" {
		err := errors.New("leaderboard event missing user id")
		span.SetStatus(codes.Error, "missing user")
		return retry.Permanent(err)
	}

	// task, mission and streak payloads all carry total_points.
	var p struct {
		TotalPoints int `json:"total_points"`
	}
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return retry.Permanent(fmt.Errorf("invalid %s payload: %w", ev.Type, err))
	}

	span.SetAttributes(
		attribute.String("user.id", ev.UserID),
		attribute.Int("points.total", p.TotalPoints),
	)
	if err := h.board.SetPoints(ctx, ev.UserID, p.TotalPoints); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "leaderboard update failed")
		return err
	}
	return nil
}
