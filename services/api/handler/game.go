package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/hotspot"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
)

// SessionView is a game session together with what the client should show.
type SessionView struct {
	*domain.GameSession
	Level   *hotspot.Level `json:"level,omitempty"`
	Mission string         `json:"mission,omitempty"`
}

// TapRequest is the JSON body for POST /api/v1/game/sessions/{id}/taps.
// X and Y are container-local; Container and Image are the view and the
// image's natural size.
type TapRequest struct {
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Container hotspot.Size `json:"container"`
	Image     hotspot.Size `json:"image"`
}

// TapResponse reports the outcome of one tap.
type TapResponse struct {
	Hit            bool            `json:"hit"`
	Marker         *hotspot.Marker `json:"marker,omitempty"`
	LevelCompleted bool            `json:"levelCompleted"`
	Session        SessionView     `json:"session"`
}

// GameLevels handles GET /api/v1/game/levels.
func (h *REST) GameLevels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(h.Catalog.GameLevels()))
}

// StartGame handles POST /api/v1/game/sessions.
func (h *REST) StartGame(w http.ResponseWriter, r *http.Request) {
	course, err := hotspot.NewCourse(h.Catalog.GameLevels())
	if err != nil {
		if errors.Is(err, hotspot.ErrNoLevels) {
			writeError(w, http.StatusServiceUnavailable, "no game levels configured")
			return
		}
		h.fail(w, "start game", err)
		return
	}
	now := h.Now().UTC()
	sess := &domain.GameSession{
		ID:        uuid.New().String(),
		UserID:    userID(r),
		StartedAt: now,
	}
	syncSession(sess, course, now)
	if err := h.Sessions.Save(r.Context(), sess); err != nil {
		h.fail(w, "start game", err)
		return
	}
	h.Logger.Info("game session started", slog.String("user_id", sess.UserID), slog.String("session_id", sess.ID))
	writeJSON(w, http.StatusCreated, view(sess, course))
}

// GetGame handles GET /api/v1/game/sessions/{id}.
func (h *REST) GetGame(w http.ResponseWriter, r *http.Request) {
	sess, course, err := h.loadSession(r)
	if err != nil {
		h.fail(w, "get game", err)
		return
	}
	writeJSON(w, http.StatusOK, view(sess, course))
}

// Tap handles POST /api/v1/game/sessions/{id}/taps. A hit on the last
// hotspot of a level moves the session on to the next level.
func (h *REST) Tap(w http.ResponseWriter, r *http.Request) {
	var req TapRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, course, err := h.loadSession(r)
	if err != nil {
		h.fail(w, "tap", err)
		return
	}

	var resp TapResponse
	area, active := course.Current().ActiveArea()
	// An unknown or zero-sized view counts as a miss.
	geo, ok := hotspot.ComputeRenderedGeometry(req.Container, req.Image)
	if ok && active && !course.Complete() && course.Tap(req.X, req.Y, geo) {
		resp.Hit = true
		m := hotspot.ComputeMarkerPosition(area, geo)
		resp.Marker = &m
		if course.Current().Done() {
			resp.LevelCompleted = true
			course.Next()
		}
	}

	result := "miss"
	if resp.Hit {
		result = "hit"
		syncSession(sess, course, h.Now().UTC())
		if err := h.Sessions.Save(r.Context(), sess); err != nil {
			h.fail(w, "tap", err)
			return
		}
	}
	telemetry.APIGameTaps.WithLabelValues(result).Inc()

	resp.Session = view(sess, course)
	writeJSON(w, http.StatusOK, resp)
}

// loadSession fetches the caller's session and rebuilds its course. Another
// user's session is reported as not found.
func (h *REST) loadSession(r *http.Request) (*domain.GameSession, *hotspot.Course, error) {
	id := chi.URLParam(r, "id")
	sess, err := h.Sessions.Get(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	if sess.UserID != userID(r) {
		return nil, nil, &domain.GameSessionNotFoundError{SessionID: id}
	}
	idx := sess.LevelIndex
	if sess.Complete {
		idx = len(h.Catalog.GameLevels())
	}
	course, err := hotspot.ResumeCourse(h.Catalog.GameLevels(), idx, hotspot.Phase(sess.Phase))
	if err != nil {
		return nil, nil, err
	}
	return sess, course, nil
}

func syncSession(sess *domain.GameSession, c *hotspot.Course, now time.Time) {
	sess.LevelIndex = c.Index()
	sess.Phase = string(c.Current().Phase())
	sess.Complete = c.Complete()
	sess.UpdatedAt = now
}

func view(sess *domain.GameSession, c *hotspot.Course) SessionView {
	v := SessionView{GameSession: sess}
	if !c.Complete() {
		lvl := c.Current().Level()
		v.Level = &lvl
		v.Mission = c.Current().ActiveMission()
	}
	return v
}
