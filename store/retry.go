package store

import (
	"context"
	"errors"
	"time"

	"github.com/jpillora/backoff"
)

var _ CounterStore = (*RetryStore)(nil)

// RetryStore decorates a CounterStore with bounded retries and exponential
// backoff. The limiter itself never retries: whether to ride out a flaky
// backend is the embedding system's call, so this wrapper is strictly
// opt-in. ErrKeyNotFound is a contract outcome, not a failure, and is
// never retried.
type RetryStore struct {
	inner    CounterStore
	attempts int
	min, max time.Duration
}

// RetryOption configures a RetryStore.
type RetryOption func(*RetryStore)

// WithAttempts sets the total number of tries per operation (default 3).
func WithAttempts(n int) RetryOption {
	return func(s *RetryStore) {
		s.attempts = n
	}
}

// WithBackoffBounds sets the first and the maximum delay between tries.
func WithBackoffBounds(min, max time.Duration) RetryOption {
	return func(s *RetryStore) {
		s.min = min
		s.max = max
	}
}

// NewRetryStore wraps inner with retry behavior.
func NewRetryStore(inner CounterStore, opts ...RetryOption) *RetryStore {
	s := &RetryStore{
		inner:    inner,
		attempts: 3,
		min:      10 * time.Millisecond,
		max:      250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// do runs op up to s.attempts times, sleeping between tries and aborting
// early when the context ends.
func (s *RetryStore) do(ctx context.Context, op func() error) error {
	b := &backoff.Backoff{
		Min:    s.min,
		Max:    s.max,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for i := 0; i < s.attempts; i++ {
		err = op()
		if err == nil || errors.Is(err, ErrKeyNotFound) {
			return err
		}
		if i == s.attempts-1 {
			break
		}
		select {
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// GetMany retries the wrapped bulk read.
func (s *RetryStore) GetMany(ctx context.Context, keys []string) (map[string]int64, error) {
	var counts map[string]int64
	err := s.do(ctx, func() error {
		var err error
		counts, err = s.inner.GetMany(ctx, keys)
		return err
	})
	return counts, err
}

// Increment retries the wrapped increment, passing ErrKeyNotFound through
// on the first occurrence.
func (s *RetryStore) Increment(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.do(ctx, func() error {
		var err error
		n, err = s.inner.Increment(ctx, key)
		return err
	})
	return n, err
}

// Set retries the wrapped set.
func (s *RetryStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return s.do(ctx, func() error {
		return s.inner.Set(ctx, key, value, ttl)
	})
}
