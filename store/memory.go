package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     int64
	expiresAt time.Time
}

var _ CounterStore = (*MemoryStore)(nil)

// MemoryStore is an in-process CounterStore backed by a map. It enforces
// nothing across replicas; use it for tests, local development, and
// single-instance deployments. Expired entries are dropped lazily when
// touched and whenever Len is called.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock injects the time source used for expiry. Tests use this
// to advance time deterministically.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore builds an empty in-process store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// live returns the entry for key if present and unexpired, deleting it
// otherwise. Callers must hold s.mu.
func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.After(s.now()) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

// GetMany returns the unexpired values among keys.
func (s *MemoryStore) GetMany(ctx context.Context, keys []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64, len(keys))
	for _, key := range keys {
		if e, ok := s.live(key); ok {
			counts[key] = e.value
		}
	}
	return counts, nil
}

// Increment adds one to an existing unexpired key, preserving its expiry.
func (s *MemoryStore) Increment(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return 0, ErrKeyNotFound
	}
	e.value++
	s.entries[key] = e
	return e.value, nil
}

// Set stores the value with the given TTL.
func (s *MemoryStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Len reports how many unexpired entries the store holds, sweeping the
// expired ones as a side effect.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.entries {
		s.live(key)
	}
	return len(s.entries)
}
