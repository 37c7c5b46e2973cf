package repository

import (
	"context"
	"sync"
)

// MemoryResultCache stores encoded comparison results keyed by the
// caller's idempotency key, so replaying a request returns the earlier
// answer byte for byte.
type MemoryResultCache struct {
	mu      sync.RWMutex
	results map[string][]byte
}

// NewMemoryResultCache constructs an empty cache.
func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{results: make(map[string][]byte)}
}

// Get retrieves a cached result.
func (m *MemoryResultCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.results[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Put stores an encoded result.
func (m *MemoryResultCache) Put(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[key] = append([]byte(nil), payload...)
	return nil
}
