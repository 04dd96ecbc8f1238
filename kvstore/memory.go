package kvstore

import (
	"context"
	"sync"
	"time"

	"github.com/registrylabs/rdapnorm"
)

// Memory is an in-process Store with TTL expiry. Suitable for tests and
// single-node deployments.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
	now        func() time.Time
}

type memoryEntry struct {
	entry     *rdapnorm.CacheEntry
	expiresAt time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithMaxEntries caps the store size; at capacity, expired entries are
// evicted before insert. Zero means unlimited.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) { m.maxEntries = n }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the entry for key, or (nil, nil) when absent or expired.
func (m *Memory) Get(_ context.Context, key string) (*rdapnorm.CacheEntry, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}
	return e.entry, nil
}

// Set stores entry under key for ttl.
func (m *Memory) Set(_ context.Context, key string, entry *rdapnorm.CacheEntry, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictExpired()
	}
	m.entries[key] = memoryEntry{entry: entry, expiresAt: m.now().Add(ttl)}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// evictExpired removes expired entries. Caller holds the write lock.
func (m *Memory) evictExpired() {
	now := m.now()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}
