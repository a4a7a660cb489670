// Package events builds, encodes and publishes progress events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
	"github.com/ramiqadoumi/go-drive-quest/internal/kafka"
)

// HeaderEventType carries the event type so consumers can route without
// decoding the body.
const HeaderEventType = "event-type"

// New builds an event with a fresh id. payload may be nil.
func New(typ domain.EventType, userID string, payload any) (domain.Event, error) {
	ev := domain.Event{
		ID:         uuid.New().String(),
		Type:       typ,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return domain.Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
		}
		ev.Payload = raw
	}
	return ev, nil
}

// Decode parses an event envelope and rejects ones without id or type.
func Decode(data []byte) (domain.Event, error) {
	var ev domain.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return domain.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.ID == "" || ev.Type == "" {
		return domain.Event{}, fmt.Errorf("decode event: missing id or type")
	}
	return ev, nil
}

// Publisher writes events to the progress topic keyed by user.
type Publisher struct {
	producer kafka.Producer
	topic    string
	logger   *slog.Logger
}

func NewPublisher(p kafka.Producer, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = kafka.TopicProgressEvents
	}
	return &Publisher{producer: p, topic: topic, logger: logger}
}

// Publish sends ev and returns any broker error.
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}
	key := ev.UserID
	if key == "" {
		key = ev.ID
	}
	return p.producer.Publish(ctx, p.topic, key, data,
		kafka.Header{Key: HeaderEventType, Value: []byte(ev.Type)})
}

// Emit builds and publishes an event, logging instead of returning failures.
// Request paths use it so a broker outage never fails a user action.
func (p *Publisher) Emit(ctx context.Context, typ domain.EventType, userID string, payload any) {
	if p == nil || p.producer == nil {
		return
	}
	ev, err := New(typ, userID, payload)
	if err == nil {
		err = p.Publish(ctx, ev)
	}
	if err != nil {
		p.logger.Warn("event publish failed",
			slog.String("event_type", string(typ)),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
