// Package handler implements the REST surface of the API service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramiqadoumi/go-drive-quest/internal/auth"
	"github.com/ramiqadoumi/go-drive-quest/internal/catalog"
	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/events"
	"github.com/ramiqadoumi/go-drive-quest/internal/postgres"
	"github.com/ramiqadoumi/go-drive-quest/internal/progress"
	redisstore "github.com/ramiqadoumi/go-drive-quest/internal/redis"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
	"github.com/ramiqadoumi/go-drive-quest/services/api/middleware"
)

// Deps are the collaborators of the REST handler. Events and Leaderboard may
// be nil; the handler then skips publishing and ranks from Postgres.
type Deps struct {
	Catalog      *catalog.Catalog
	Users        postgres.UserRepository
	Completions  postgres.CompletionRepository
	Missions     postgres.MissionRepository
	Rewards      postgres.RewardRepository
	Streaks      progress.StreakStore
	Sessions     redisstore.GameSessionStore
	Leaderboard  redisstore.Leaderboard
	LoginLimiter redisstore.RateLimiter
	Tokens       *auth.TokenManager
	Events       *events.Publisher
	Logger       *slog.Logger
	// Location defines the calendar day; nil means UTC.
	Location    *time.Location
	ResetPolicy progress.ResetPolicy
	// StreakTaskID is the task that advances the streak. It can be completed
	// every day, once per day; zero means progress.DefaultStreakTaskID.
	StreakTaskID int
	// ReadyChecks back /readyz.
	ReadyChecks []telemetry.ReadyFunc
	Now         func() time.Time
}

// REST handles HTTP requests for the API service.
type REST struct {
	Deps
}

// NewREST creates a new REST handler.
func NewREST(d Deps) *REST {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.ResetPolicy == "" {
		d.ResetPolicy = progress.ResetNone
	}
	if d.StreakTaskID == 0 {
		d.StreakTaskID = progress.DefaultStreakTaskID
	}
	return &REST{Deps: d}
}

// today is the current calendar date in the configured location.
func (h *REST) today() string { return progress.Today(h.Now(), h.Location) }

// Healthz handles GET /healthz.
func (h *REST) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz: every dependency check must pass.
func (h *REST) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, check := range h.ReadyChecks {
		if err := check(ctx); err != nil {
			h.Logger.Warn("readiness check failed", slog.String("error", err.Error()))
			writeError(w, http.StatusServiceUnavailable, "dependencies not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// userID returns the authenticated caller. Routes behind middleware.Auth
// always have one.
func userID(r *http.Request) string {
	c, _ := middleware.ClaimsFrom(r.Context())
	return c.UserID
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func intParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil
}

// limitQuery reads ?limit=, falling back to def and clamping to [1, max].
func limitQuery(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// fail maps domain errors to status codes and logs anything unexpected.
// Internal details never reach the client.
func (h *REST) fail(w http.ResponseWriter, op string, err error) {
	var (
		taskNF    *domain.TaskNotFoundError
		missionNF *domain.MissionNotFoundError
		levelNF   *domain.LevelNotFoundError
		userNF    *domain.UserNotFoundError
		rewardNF  *domain.RewardNotFoundError
		featureNF *domain.FeatureNotFoundError
		sessionNF *domain.GameSessionNotFoundError
		termNF    *domain.GlossaryTermNotFoundError
		warningNF *domain.WarningNotFoundError
		taken     *domain.EmailTakenError
		badCreds  *domain.InvalidCredentialsError
		notToday  *domain.TaskNotAvailableError
		done      *domain.AlreadyCompletedError
		locked    *domain.RewardLockedError
	)
	switch {
	case errors.As(err, &taskNF), errors.As(err, &missionNF), errors.As(err, &levelNF),
		errors.As(err, &userNF), errors.As(err, &rewardNF), errors.As(err, &featureNF),
		errors.As(err, &sessionNF), errors.As(err, &termNF), errors.As(err, &warningNF):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &taken), errors.As(err, &done):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &badCreds):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &notToday):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &locked):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.Logger.Error(op+" failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
