package store

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

var _ CounterStore = (*RistrettoStore)(nil)

// RistrettoStore is an in-process CounterStore on a ristretto cache.
// Unlike MemoryStore it bounds its own memory and evicts under pressure,
// which suits long-lived processes with high-cardinality identities; the
// trade-off is that eviction of a live bucket forgets requests, erring on
// the side of admission.
//
// Ristretto applies writes asynchronously, so every mutation waits for the
// write buffer to drain before returning; increments are additionally
// serialized by a mutex because the cache has no atomic read-modify-write.
type RistrettoStore struct {
	mu    sync.Mutex
	cache *ristretto.Cache
}

// NewRistrettoStore builds a store holding up to maxEntries counters.
func NewRistrettoStore(maxEntries int64) (*RistrettoStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoStore{cache: cache}, nil
}

// GetMany returns the unexpired values among keys.
func (s *RistrettoStore) GetMany(ctx context.Context, keys []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(keys))
	for _, key := range keys {
		if v, ok := s.cache.Get(key); ok {
			counts[key] = v.(int64)
		}
	}
	return counts, nil
}

// Increment adds one to an existing key, keeping its remaining TTL.
func (s *RistrettoStore) Increment(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(key)
	if !ok {
		return 0, ErrKeyNotFound
	}
	ttl, ok := s.cache.GetTTL(key)
	if !ok {
		return 0, ErrKeyNotFound
	}
	n := v.(int64) + 1
	s.cache.SetWithTTL(key, n, 1, ttl)
	s.cache.Wait()
	return n, nil
}

// Set stores the value with the given TTL.
func (s *RistrettoStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.SetWithTTL(key, value, 1, ttl)
	s.cache.Wait()
	return nil
}

// Close releases the cache's background resources.
func (s *RistrettoStore) Close() {
	s.cache.Close()
}
