package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
)

const (
	defaultRecentLimit  = 5
	maxRecentLimit      = 50
	defaultRankingLimit = 10
	maxRankingLimit     = 100
)

// LevelResponse is the GET /api/v1/levels/{id} body.
type LevelResponse struct {
	*domain.Level
	Missions []domain.Mission `json:"missions"`
}

// CompleteMissionRequest is the JSON body for POST /api/v1/progress/missions/complete.
type CompleteMissionRequest struct {
	LevelID   int `json:"levelId"`
	MissionID int `json:"missionId"`
}

// CompleteMissionResponse reports the mission and the user's new total.
type CompleteMissionResponse struct {
	Mission          *domain.Mission `json:"mission"`
	Points           int             `json:"points"`
	AlreadyCompleted bool            `json:"alreadyCompleted"`
}

// SummaryResponse is the GET /api/v1/progress/summary body.
type SummaryResponse struct {
	Overall domain.LevelSummary   `json:"overall"`
	Levels  []domain.LevelSummary `json:"levels"`
}

// ListLevels handles GET /api/v1/levels.
func (h *REST) ListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.Missions.Levels(r.Context())
	if err != nil {
		h.fail(w, "list levels", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(levels))
}

// GetLevel handles GET /api/v1/levels/{id}.
func (h *REST) GetLevel(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "level ID must be an integer")
		return
	}
	level, err := h.Missions.Level(r.Context(), id)
	if err != nil {
		h.fail(w, "get level", err)
		return
	}
	missions, err := h.Missions.Missions(r.Context(), id)
	if err != nil {
		h.fail(w, "get level", err)
		return
	}
	writeJSON(w, http.StatusOK, LevelResponse{Level: level, Missions: nonNil(missions)})
}

// ListMissions handles GET /api/v1/missions.
func (h *REST) ListMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := h.Missions.Missions(r.Context(), 0)
	if err != nil {
		h.fail(w, "list missions", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(missions))
}

// LevelMissions handles GET /api/v1/missions/level/{levelId}.
func (h *REST) LevelMissions(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "levelId")
	if !ok || id <= 0 {
		writeError(w, http.StatusBadRequest, "level ID must be a positive integer")
		return
	}
	if _, err := h.Missions.Level(r.Context(), id); err != nil {
		h.fail(w, "list level missions", err)
		return
	}
	missions, err := h.Missions.Missions(r.Context(), id)
	if err != nil {
		h.fail(w, "list level missions", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(missions))
}

// GetMission handles GET /api/v1/missions/{levelId}/{missionId}.
func (h *REST) GetMission(w http.ResponseWriter, r *http.Request) {
	levelID, ok1 := intParam(r, "levelId")
	missionID, ok2 := intParam(r, "missionId")
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "level and mission IDs must be integers")
		return
	}
	m, err := h.Missions.Mission(r.Context(), levelID, missionID)
	if err != nil {
		h.fail(w, "get mission", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Progress handles GET /api/v1/progress.
func (h *REST) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.Missions.Progress(r.Context(), userID(r))
	if err != nil {
		h.fail(w, "get progress", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(p))
}

// CompleteMission handles POST /api/v1/progress/missions/complete. Points
// are awarded on the first completion only; repeats answer 200.
func (h *REST) CompleteMission(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.complete_mission")
	defer span.End()

	var req CompleteMissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LevelID <= 0 || req.MissionID <= 0 {
		writeError(w, http.StatusBadRequest, "fields 'levelId' and 'missionId' are required")
		return
	}
	uid := userID(r)
	span.SetAttributes(
		attribute.Int("mission.level_id", req.LevelID),
		attribute.Int("mission.id", req.MissionID),
	)

	m, err := h.Missions.Mission(ctx, req.LevelID, req.MissionID)
	if err != nil {
		h.fail(w, "complete mission", err)
		return
	}
	completed, total, err := h.Missions.Complete(ctx, uid, m, h.Now().UTC())
	if err != nil {
		h.fail(w, "complete mission", err)
		return
	}
	if !completed {
		writeJSON(w, http.StatusOK, CompleteMissionResponse{Mission: m, Points: total, AlreadyCompleted: true})
		return
	}

	telemetry.APIMissionsCompleted.Inc()
	h.Events.Emit(ctx, domain.EventMissionCompleted, uid, domain.PointsPayload{
		Points:      m.AwardedPoints(),
		TotalPoints: total,
		Ref:         fmt.Sprintf("mission:%d/%d", m.LevelID, m.MissionID),
	})
	h.Logger.Info("mission completed",
		slog.String("user_id", uid),
		slog.Int("level_id", m.LevelID),
		slog.Int("mission_id", m.MissionID),
	)
	writeJSON(w, http.StatusCreated, CompleteMissionResponse{Mission: m, Points: total})
}

// Summary handles GET /api/v1/progress/summary.
func (h *REST) Summary(w http.ResponseWriter, r *http.Request) {
	overall, levels, err := h.Missions.Summary(r.Context(), userID(r))
	if err != nil {
		h.fail(w, "get summary", err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Overall: overall, Levels: nonNil(levels)})
}

// Recent handles GET /api/v1/progress/recent?limit=n.
func (h *REST) Recent(w http.ResponseWriter, r *http.Request) {
	limit := limitQuery(r, defaultRecentLimit, maxRecentLimit)
	recent, err := h.Missions.Recent(r.Context(), userID(r), limit)
	if err != nil {
		h.fail(w, "get recent missions", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(recent))
}

// Ranking handles GET /api/v1/progress/ranking?limit=n. The Redis
// leaderboard is preferred; Postgres answers when it is empty or down.
func (h *REST) Ranking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := limitQuery(r, defaultRankingLimit, maxRankingLimit)

	if h.Leaderboard != nil {
		top, err := h.Leaderboard.Top(ctx, limit)
		switch {
		case err != nil:
			h.Logger.Warn("leaderboard unavailable, ranking from postgres", slog.String("error", err.Error()))
		case len(top) > 0:
			writeJSON(w, http.StatusOK, top)
			return
		}
	}

	ranking, err := h.Users.Ranking(ctx, limit)
	if err != nil {
		h.fail(w, "get ranking", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ranking))
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

