// Package cache puts a small in-process LRU in front of the shared response
// cache so hot catalog reads skip the network round trip.
package cache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultLocalSize = 512
	defaultLocalTTL  = 30 * time.Second
)

// Store is the shared (second-level) response cache.
type Store interface {
	Get(ctx context.Context, uri string) ([]byte, bool, error)
	Set(ctx context.Context, uri string, body []byte, ttl time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

type entry struct {
	body     []byte
	storedAt time.Time
}

// Tiered serves from the local LRU first and falls back to the shared store.
// Local entries expire after localTTL regardless of the shared TTL.
//
// Invalidation from another process only reaches the shared store, so a
// local copy can outlive it by up to localTTL. URIs under a SharedOnly
// prefix never enter the local tier.
type Tiered struct {
	local      *lru.Cache[string, entry]
	shared     Store
	localTTL   time.Duration
	sharedOnly []string
	now        func() time.Time
}

// Option configures a Tiered cache.
type Option func(*Tiered)

// SharedOnly keeps URIs starting with any of prefixes out of the local tier.
// Use it for responses that other processes invalidate.
func SharedOnly(prefixes ...string) Option {
	return func(t *Tiered) { t.sharedOnly = append(t.sharedOnly, prefixes...) }
}

// NewTiered wraps shared with an LRU of size entries. Zero values pick defaults.
func NewTiered(shared Store, size int, localTTL time.Duration, opts ...Option) (*Tiered, error) {
	if size <= 0 {
		size = defaultLocalSize
	}
	if localTTL <= 0 {
		localTTL = defaultLocalTTL
	}
	local, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	t := &Tiered{local: local, shared: shared, localTTL: localTTL, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tiered) localOK(uri string) bool {
	for _, p := range t.sharedOnly {
		if strings.HasPrefix(uri, p) {
			return false
		}
	}
	return true
}

// Get checks the local tier, then the shared store, copying shared hits
// into the local tier.
func (t *Tiered) Get(ctx context.Context, uri string) ([]byte, bool, error) {
	if e, ok := t.local.Get(uri); ok {
		if t.now().Sub(e.storedAt) < t.localTTL {
			return e.body, true, nil
		}
		t.local.Remove(uri)
	}
	if t.shared == nil {
		return nil, false, nil
	}
	body, ok, err := t.shared.Get(ctx, uri)
	if err != nil || !ok {
		return nil, false, err
	}
	if t.localOK(uri) {
		t.local.Add(uri, entry{body: body, storedAt: t.now()})
	}
	return body, true, nil
}

// Set writes both tiers; ttl applies to the shared store only.
func (t *Tiered) Set(ctx context.Context, uri string, body []byte, ttl time.Duration) error {
	if t.localOK(uri) {
		t.local.Add(uri, entry{body: body, storedAt: t.now()})
	}
	if t.shared == nil {
		return nil
	}
	return t.shared.Set(ctx, uri, body, ttl)
}

// InvalidatePrefix drops matching entries from this process's local tier and
// from the shared store. It returns the shared count when there is one.
func (t *Tiered) InvalidatePrefix(ctx context.Context, prefix string) (int, error) {
	n := 0
	for _, k := range t.local.Keys() {
		if strings.HasPrefix(k, prefix) {
			t.local.Remove(k)
			n++
		}
	}
	if t.shared == nil {
		return n, nil
	}
	return t.shared.InvalidatePrefix(ctx, prefix)
}

// Len reports the number of locally cached entries.
func (t *Tiered) Len() int { return t.local.Len() }
