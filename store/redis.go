package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments a key only if it already exists. Redis INCR would
// otherwise create the key at zero with no expiry, which would leak
// counters that never expire; the limiter instead creates missing buckets
// explicitly via Set so the TTL is always attached.
var incrScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
return redis.call('INCR', KEYS[1])
`)

var _ CounterStore = (*RedisStore)(nil)

// RedisStore is a CounterStore backed by Redis. It is safe to share one
// instance across goroutines and, pointed at the same Redis, across
// processes and hosts.
type RedisStore struct {
	client  redis.Cmdable
	timeout time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTimeout bounds each store operation with its own deadline, layered
// on top of whatever deadline the caller's context already carries.
// Zero disables the per-operation deadline.
func WithTimeout(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.timeout = d
	}
}

// NewRedisStore wraps a go-redis client as a CounterStore.
func NewRedisStore(client redis.Cmdable, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// GetMany reads all keys in a single MGET round trip.
func (s *RedisStore) GetMany(ctx context.Context, keys []string) (map[string]int64, error) {
	if len(keys) == 0 {
		return map[string]int64{}, nil
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(keys))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // nil reply, key absent
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			continue // foreign value under our key, treat as unset
		}
		counts[keys[i]] = n
	}
	return counts, nil
}

// Increment adds one to an existing key, returning ErrKeyNotFound if the
// key is absent or expired.
func (s *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	n, err := incrScript.Run(ctx, s.client, []string{key}).Int64()
	if err == redis.Nil {
		return 0, ErrKeyNotFound
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Set stores the value with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return s.client.Set(ctx, key, value, ttl).Err()
}
