package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

const sessionTTL = 24 * time.Hour

func sessionKey(id string) string { return "game:session:" + id }

// GameSessionStore keeps learning-game sessions. Every save refreshes the TTL.
type GameSessionStore interface {
	Save(ctx context.Context, s *domain.GameSession) error
	Get(ctx context.Context, id string) (*domain.GameSession, error)
}

type gameSessionStore struct {
	client *redis.Client
}

func NewGameSessionStore(client *redis.Client) GameSessionStore {
	return &gameSessionStore{client: client}
}

func (s *gameSessionStore) Save(ctx context.Context, sess *domain.GameSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal game session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set game session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *gameSessionStore) Get(ctx context.Context, id string) (*domain.GameSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &domain.GameSessionNotFoundError{SessionID: id}
		}
		return nil, fmt.Errorf("redis get game session %s: %w", id, err)
	}
	var sess domain.GameSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal game session: %w", err)
	}
	return &sess, nil
}
