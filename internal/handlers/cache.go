package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// Invalidator drops cached responses whose request URI starts with prefix.
type Invalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

// rankingPath is the cached ranking route; any points change makes it stale.
const rankingPath = "/api/v1/progress/ranking"

// CacheInvalidationHandler evicts cached API responses made stale by an event.
type CacheInvalidationHandler struct {
	cache  Invalidator
	logger *slog.Logger
}

func NewCacheInvalidationHandler(cache Invalidator, logger *slog.Logger) *CacheInvalidationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheInvalidationHandler{cache: cache, logger: logger}
}

func (h *CacheInvalidationHandler) Name() string { return "cache-invalidation" }

func (h *CacheInvalidationHandler) EventTypes() []domain.EventType {
	return []domain.EventType{
		domain.EventTaskCompleted,
		domain.EventMissionCompleted,
		domain.EventStreakUpdated,
		domain.EventDayRollover,
	}
}

// Prefixes returns the URI prefixes an event of typ invalidates.
// A rollover flushes every cached response.
func Prefixes(typ domain.EventType) []string {
	switch typ {
	case domain.EventDayRollover:
		return []string{""}
	case domain.EventTaskCompleted, domain.EventMissionCompleted, domain.EventStreakUpdated:
		return []string{rankingPath}
	default:
		return nil
	}
}

func (h *CacheInvalidationHandler) Handle(ctx context.Context, ev *domain.Event) error {
	for _, prefix := range Prefixes(ev.Type) {
		n, err := h.cache.InvalidatePrefix(ctx, prefix)
		if err != nil {
			return fmt.Errorf("invalidate %s: %w", prefix, err)
		}
		if n > 0 {
			h.logger.Debug("cache invalidated",
				slog.String("event_id", ev.ID),
				slog.String("prefix", prefix),
				slog.Int("keys", n),
			)
		}
	}
	return nil
}
