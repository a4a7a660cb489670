package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/pkg/retry"
)

// fulfilmentRequest is the body posted to the fulfilment endpoint.
type fulfilmentRequest struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	RewardID  string    `json:"reward_id"`
	Title     string    `json:"title"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// RewardWebhookHandler notifies an external fulfilment service of each
// claimed reward.
type RewardWebhookHandler struct {
	url    string
	token  string
	client *http.Client
}

// NewRewardWebhookHandler creates a RewardWebhookHandler posting to url.
// token, when set, is sent as a bearer token.
func NewRewardWebhookHandler(url, token string) *RewardWebhookHandler {
	return &RewardWebhookHandler{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *RewardWebhookHandler) Name() string { return "reward-webhook" }

func (h *RewardWebhookHandler) EventTypes() []domain.EventType {
	return []domain.EventType{domain.EventRewardClaimed}
}

func (h *RewardWebhookHandler) Handle(ctx context.Context, ev *domain.Event) error {
	ctx, span := otel.Tracer("worker").Start(ctx, "handler.reward_webhook")
	defer span.End()

	var p domain.RewardPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return retry.Permanent(fmt.Errorf("invalid reward payload: %w", err))
	}
	if p.RewardID == "" {
		err := errors.New("reward payload missing required field 'reward_id'")
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing 'reward_id' field")
		return retry.Permanent(err)
	}

	span.SetAttributes(
		attribute.String("webhook.url", h.url),
		attribute.String("reward.id", p.RewardID),
	)

	body, err := json.Marshal(fulfilmentRequest{
		EventID:   ev.ID,
		UserID:    ev.UserID,
		RewardID:  p.RewardID,
		Title:     p.Title,
		ClaimedAt: ev.OccurredAt,
	})
	if err != nil {
		return retry.Permanent(fmt.Errorf("marshal fulfilment request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request failed")
		return retry.Permanent(fmt.Errorf("build webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", ev.ID)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http call failed")
		return fmt.Errorf("webhook call to %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	switch {
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		err := fmt.Errorf("webhook %s returned status %d", h.url, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad status code")
		return err
	case resp.StatusCode >= http.StatusBadRequest:
		// The receiver rejected the request itself; resending cannot help.
		err := fmt.Errorf("webhook %s rejected reward %s with status %d", h.url, p.RewardID, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected")
		return retry.Permanent(err)
	}
	return nil
}
