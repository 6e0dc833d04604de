package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryBackend keeps records in process. It is used when no database is
// configured and in tests.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryBackend creates an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]Record)}
}

// Load implements Backend.
func (m *MemoryBackend) Load(_ context.Context, key string, _ time.Time) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return Record{}, false, nil
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	return rec, true, nil
}

// Store implements Backend.
func (m *MemoryBackend) Store(_ context.Context, key string, rec Record) error {
	rec.Payload = append([]byte(nil), rec.Payload...)

	m.mu.Lock()
	m.records[key] = rec
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored records, expired ones included.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
