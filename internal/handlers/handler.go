// Package handlers holds the worker-side reactions to progress events.
package handlers

import (
	"context"
	"sync"

	"github.com/ramiqadoumi/go-drive-quest/internal/domain"
)

// Handler reacts to one or more event types.
type Handler interface {
	Handle(ctx context.Context, ev *domain.Event) error
	Name() string
	EventTypes() []domain.EventType
}

// Registry maps event types to the handlers subscribed to them, in
// registration order.
type Registry struct {
	mu       sync.RWMutex
	handlers map[domain.EventType][]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.EventType][]Handler)}
}

// Register subscribes h to every type it declares. Registering a handler
// with the same name for a type replaces the earlier one. Safe to call
// concurrently.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, typ := range h.EventTypes() {
		hs := r.handlers[typ]
		replaced := false
		for i, existing := range hs {
			if existing.Name() == h.Name() {
				hs[i] = h
				replaced = true
			}
		}
		if !replaced {
			hs = append(hs, h)
		}
		r.handlers[typ] = hs
	}
}

// Get returns the handlers for typ.
// Returns UnhandledEventError if none are registered.
func (r *Registry) Get(typ domain.EventType) ([]Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hs := r.handlers[typ]
	if len(hs) == 0 {
		return nil, &domain.UnhandledEventError{Type: typ}
	}
	out := make([]Handler, len(hs))
	copy(out, hs)
	return out, nil
}

// Types lists every event type with at least one handler.
func (r *Registry) Types() []domain.EventType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.EventType, 0, len(r.handlers))
	for typ := range r.handlers {
		out = append(out, typ)
	}
	return out
}
