// Package store defines the counter store consumed by the throttle package
// and provides Redis, in-process, and decorated implementations.
//
// A CounterStore is a shared key-value cache of small integers with
// best-effort TTL expiry. It is the limiter's only persistent state; any
// backend with a bulk read, an atomic increment that fails on absent keys,
// and set-with-expiry satisfies the contract. No multi-key atomicity is
// required: the limiter tolerates the read/increment race this implies.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Increment when the key has never been set
// or has expired. Callers recover by creating the key with Set.
var ErrKeyNotFound = errors.New("store: key not found")

// CounterStore is the persistence contract for throttle counters.
// Implementations must be safe for concurrent use, including from multiple
// processes when the backend is shared. Operations are blocking I/O;
// timeout policy belongs to the implementation, not its callers.
type CounterStore interface {
	// GetMany returns the current values for the given keys. Keys that
	// were never set or have expired are absent from the result.
	GetMany(ctx context.Context, keys []string) (map[string]int64, error)

	// Increment atomically adds one to an existing key and returns the new
	// value. It returns ErrKeyNotFound if the key does not exist; it never
	// creates keys.
	Increment(ctx context.Context, key string) (int64, error)

	// Set stores a value under the key with the given time to live.
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error
}
