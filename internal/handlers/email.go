package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/pkg/retry"
)

// EmailConfig holds SMTP connection details.
type EmailConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// RewardEmailHandler mails the owner a confirmation for each claimed reward.
type RewardEmailHandler struct {
	cfg  EmailConfig
	send SendFunc
}

// NewRewardEmailHandler creates a RewardEmailHandler from config. A nil send
// uses smtp.SendMail.
func NewRewardEmailHandler(cfg EmailConfig, send SendFunc) *RewardEmailHandler {
	if send == nil {
		send = smtp.SendMail
	}
	return &RewardEmailHandler{cfg: cfg, send: send}
}

func (h *RewardEmailHandler) Name() string { return "reward-email" }

func (h *RewardEmailHandler) EventTypes() []domain.EventType {
	return []domain.EventType{domain.EventRewardClaimed}
}

func (h *RewardEmailHandler) Handle(ctx context.Context, ev *domain.Event) error {
	ctx, span := otel.Tracer("worker").Start(ctx, "handler.reward_email")
	defer span.End()

	var p domain.RewardPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return retry.Permanent(fmt.Errorf("invalid reward payload: %w", err))
	}
	if p.Email == "" {
		err := errors.New("reward payload missing required field 'email'")
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing 'email' field")
		return retry.Permanent(err)
	}

	span.SetAttributes(attribute.String("email.to", p.Email))

	addr := fmt.Sprintf("%s:%d", h.cfg.Host, h.cfg.Port)
	msg := buildMIME(h.cfg.From, p.Email,
		"Your DriveQuest reward: "+p.Title,
		fmt.Sprintf("Congratulations! You unlocked %q with %d XP.\r\n", p.Title, p.XP),
	)

	var auth smtp.Auth
	if h.cfg.Username != "" {
		auth = smtp.PlainAuth("", h.cfg.Username, h.cfg.Password, h.cfg.Host)
	}

	// smtp.SendMail takes no context; run it aside and honour ctx.
	done := make(chan error, 1)
	go func() {
		done <- h.send(addr, auth, h.cfg.From, []string{p.Email}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "smtp send failed")
			return fmt.Errorf("smtp send to %s: %w", p.Email, err)
		}
		return nil
	case <-ctx.Done():
		err := fmt.Errorf("email send timed out: %w", ctx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, "timeout")
		return err
	}
}

func buildMIME(from, to, subject, body string) []byte {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body,
	)
	return []byte(msg)
}
