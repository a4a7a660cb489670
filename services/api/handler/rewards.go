package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/progress"
)

// RewardsResponse is the GET /api/v1/rewards body.
type RewardsResponse struct {
	XP      int                    `json:"xp"`
	Rewards []progress.RewardState `json:"rewards"`
}

// ClaimResponse is the POST /api/v1/rewards/{id}/claim body.
type ClaimResponse struct {
	Reward domain.Reward `json:"reward"`
	XP     int           `json:"xp"`
}

// ListRewards handles GET /api/v1/rewards.
func (h *REST) ListRewards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.Users.GetByID(ctx, userID(r))
	if err != nil {
		h.fail(w, "list rewards", err)
		return
	}
	claimed, err := h.Rewards.Claimed(ctx, u.ID)
	if err != nil {
		h.fail(w, "list rewards", err)
		return
	}
	writeJSON(w, http.StatusOK, RewardsResponse{
		XP:      u.Points,
		Rewards: progress.RewardStatus(h.Catalog.Rewards(), u.Points, claimed),
	})
}

// ClaimReward handles POST /api/v1/rewards/{id}/claim.
func (h *REST) ClaimReward(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("api").Start(r.Context(), "api.claim_reward")
	defer span.End()

	reward, err := h.Catalog.Reward(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "claim reward", err)
		return
	}
	span.SetAttributes(attribute.String("reward.id", reward.ID))

	u, err := h.Users.GetByID(ctx, userID(r))
	if err != nil {
		h.fail(w, "claim reward", err)
		return
	}
	if u.Points < reward.XPRequired {
		h.fail(w, "claim reward", &domain.RewardLockedError{
			RewardID:   reward.ID,
			XPRequired: reward.XPRequired,
			XP:         u.Points,
		})
		return
	}
	if err := h.Rewards.Claim(ctx, u.ID, reward.ID, h.Now().UTC()); err != nil {
		h.fail(w, "claim reward", err)
		return
	}

	h.Events.Emit(ctx, domain.EventRewardClaimed, u.ID, domain.RewardPayload{
		RewardID: reward.ID,
		Title:    reward.Title,
		Email:    u.Email,
		XP:       u.Points,
	})
	h.Logger.Info("reward claimed", slog.String("user_id", u.ID), slog.String("reward_id", reward.ID))
	writeJSON(w, http.StatusCreated, ClaimResponse{Reward: reward, XP: u.Points})
}
