package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ramiqadoumi/go-drive-quest/internal/auth"
	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/progress"
	"github.com/ramiqadoumi/go-drive-quest/pkg/telemetry"
)

// RegisterRequest is the JSON body for POST /api/v1/users/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the JSON body for POST /api/v1/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// ProfileResponse is the GET /api/v1/users/profile body.
type ProfileResponse struct {
	*domain.User
	Rank int `json:"rank,omitempty"`
}

// CheckInResponse is the POST /api/v1/users/streak body.
type CheckInResponse struct {
	Streak           domain.StreakState `json:"streak"`
	Bonus            int                `json:"bonus"`
	Points           int                `json:"points"`
	AlreadyCheckedIn bool               `json:"alreadyCheckedIn"`
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register handles POST /api/v1/users/register.
func (h *REST) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.register")
	defer span.End()

	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "field 'email' must be a valid address")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, "field 'password' is too short")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(w, "register", err)
		return
	}
	u := &domain.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		CreatedAt:    h.Now().UTC(),
	}
	if err := h.Users.Create(ctx, u); err != nil {
		h.fail(w, "register", err)
		return
	}
	span.SetAttributes(attribute.String("user.id", u.ID))

	token, exp, err := h.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		h.fail(w, "register", err)
		return
	}
	h.Logger.Info("user registered", slog.String("user_id", u.ID))
	writeJSON(w, http.StatusCreated, TokenResponse{Token: token, ExpiresAt: exp, User: u})
}

// Login handles POST /api/v1/users/login. Attempts are throttled per email.
func (h *REST) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.login")
	defer span.End()

	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "fields 'email' and 'password' are required")
		return
	}

	if h.LoginLimiter != nil {
		ok, err := h.LoginLimiter.Allow(ctx, req.Email)
		if err != nil {
			// Fail open: a Redis outage must not lock everyone out.
			h.Logger.Warn("login rate limiter unavailable", slog.String("error", err.Error()))
		} else if !ok {
			telemetry.APILoginsRateLimited.Inc()
			writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		var nf *domain.UserNotFoundError
		if errors.As(err, &nf) {
			err = &domain.InvalidCredentialsError{}
		}
		h.fail(w, "login", err)
		return
	}
	match, err := auth.CheckPassword(u.PasswordHash, req.Password)
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	if !match {
		h.fail(w, "login", &domain.InvalidCredentialsError{})
		return
	}

	token, exp, err := h.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	now := h.Now().UTC()
	if err := h.Users.TouchLogin(ctx, u.ID, now); err != nil {
		h.Logger.Warn("touch login failed", slog.String("user_id", u.ID), slog.String("error", err.Error()))
	} else {
		u.LastLoginAt = &now
	}
	if h.LoginLimiter != nil {
		if err := h.LoginLimiter.Reset(ctx, req.Email); err != nil {
			h.Logger.Warn("reset login limiter failed", slog.String("error", err.Error()))
		}
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: exp, User: u})
}

// Profile handles GET /api/v1/users/profile.
func (h *REST) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.Users.GetByID(ctx, userID(r))
	if err != nil {
		h.fail(w, "get profile", err)
		return
	}
	resp := ProfileResponse{User: u}
	if h.Leaderboard != nil {
		if rank, err := h.Leaderboard.Rank(ctx, u.ID); err == nil {
			resp.Rank = rank
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CheckIn handles POST /api/v1/users/streak: the once-a-day check-in that
// grows the user's streak and awards the streak bonus.
func (h *REST) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.check_in")
	defer span.End()

	u, err := h.Users.GetByID(ctx, userID(r))
	if err != nil {
		h.fail(w, "check in", err)
		return
	}
	today := h.today()
	next := progress.RecordStreakTaskCompletion(u.Streak, today)
	if next == u.Streak {
		telemetry.APIStreakCheckIns.WithLabelValues("noop").Inc()
		writeJSON(w, http.StatusOK, CheckInResponse{Streak: u.Streak, Points: u.Points, AlreadyCheckedIn: true})
		return
	}

	bonus := progress.StreakBonus(next.CurrentStreak)
	ok, total, err := h.Users.UpdateCheckIn(ctx, u.ID, next, u.Streak.LastCompletedDate, bonus)
	if err != nil {
		h.fail(w, "check in", err)
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "concurrent check-in, retry")
		return
	}

	transition := "increment"
	if next.CurrentStreak == 1 {
		transition = "reset"
	}
	telemetry.APIStreakCheckIns.WithLabelValues(transition).Inc()
	span.SetAttributes(attribute.Int("streak.current", next.CurrentStreak))

	h.Events.Emit(ctx, domain.EventStreakUpdated, u.ID, domain.StreakPayload{
		CurrentStreak: next.CurrentStreak,
		Day:           today,
		Bonus:         bonus,
		TotalPoints:   total,
	})
	writeJSON(w, http.StatusOK, CheckInResponse{Streak: next, Bonus: bonus, Points: total})
}
