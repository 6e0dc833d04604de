// Package cache implements the TTL cache layers that sit in front of the
// geocoder, the IP locator and the profile store.
//
// A Layer owns the freshness rule and the payload encoding; a Backend only
// persists records. Expired records are never deleted, they simply stop
// being returned.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/racketrank/pkg/metrics"
)

// Record is a persisted cache row.
type Record struct {
	Payload   []byte
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Backend persists records by key. Load reports false when no record
// exists; it may also report false for records it knows to be expired.
type Backend interface {
	Load(ctx context.Context, key string, now time.Time) (Record, bool, error)
	Store(ctx context.Context, key string, rec Record) error
}

// Entry is a decoded fresh cache hit.
type Entry[V any] struct {
	Value     V
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Age returns the whole seconds elapsed between the write and now, rounded
// to the nearest second and never negative.
func (e Entry[V]) Age(now time.Time) int64 {
	age := now.Sub(e.UpdatedAt).Round(time.Second)
	if age < 0 {
		return 0
	}
	return int64(age / time.Second)
}

// Layer is a typed cache with a fixed TTL.
type Layer[V any] struct {
	name    string
	ttl     time.Duration
	backend Backend
	now     func() time.Time
}

// NewLayer creates a layer named name (used in metrics) over backend.
func NewLayer[V any](name string, backend Backend, ttl time.Duration, opts ...Option) *Layer[V] {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return &Layer[V]{name: name, ttl: ttl, backend: backend, now: s.now}
}

// Name returns the layer name.
func (l *Layer[V]) Name() string { return l.name }

// TTL returns the layer time-to-live.
func (l *Layer[V]) TTL() time.Duration { return l.ttl }

// GetFresh returns the entry for key if it exists and expires strictly
// after now.
func (l *Layer[V]) GetFresh(ctx context.Context, key string) (Entry[V], bool, error) {
	var zero Entry[V]
	if strings.TrimSpace(key) == "" {
		return zero, false, ErrEmptyKey
	}

	now := l.now()
	rec, ok, err := l.backend.Load(ctx, key, now)
	if err != nil {
		metrics.RecordCacheLookup(l.name, metrics.OutcomeError)
		return zero, false, fmt.Errorf("%w: %s load %q: %v", ErrBackend, l.name, key, err)
	}
	if !ok || !rec.ExpiresAt.After(now) {
		metrics.RecordCacheLookup(l.name, metrics.OutcomeMiss)
		return zero, false, nil
	}

	var v V
	if err := json.Unmarshal(rec.Payload, &v); err != nil {
		metrics.RecordCacheLookup(l.name, metrics.OutcomeError)
		return zero, false, fmt.Errorf("%w: %s decode %q: %v", ErrCodec, l.name, key, err)
	}

	metrics.RecordCacheLookup(l.name, metrics.OutcomeHit)
	return Entry[V]{Value: v, UpdatedAt: rec.UpdatedAt, ExpiresAt: rec.ExpiresAt}, true, nil
}

// Upsert writes v under key with updated_at = now and
// expires_at = now + TTL, replacing any existing record.
func (l *Layer[V]) Upsert(ctx context.Context, key string, v V) (Entry[V], error) {
	var zero Entry[V]
	if strings.TrimSpace(key) == "" {
		return zero, ErrEmptyKey
	}

	payload, err := json.Marshal(v)
	if err != nil {
		metrics.RecordCacheWrite(l.name, metrics.OutcomeError)
		return zero, fmt.Errorf("%w: %s encode %q: %v", ErrCodec, l.name, key, err)
	}

	now := l.now()
	rec := Record{Payload: payload, UpdatedAt: now, ExpiresAt: now.Add(l.ttl)}
	if err := l.backend.Store(ctx, key, rec); err != nil {
		metrics.RecordCacheWrite(l.name, metrics.OutcomeError)
		return zero, fmt.Errorf("%w: %s store %q: %v", ErrBackend, l.name, key, err)
	}

	metrics.RecordCacheWrite(l.name, metrics.OutcomeOK)
	return Entry[V]{Value: v, UpdatedAt: rec.UpdatedAt, ExpiresAt: rec.ExpiresAt}, nil
}
