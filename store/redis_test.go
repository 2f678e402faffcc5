package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), server
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	// Increment never creates keys, so buckets are only ever born with a TTL.
	_, err := s.Increment(ctx, "k1")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "k1", 1, 10*time.Second))

	n, err := s.Increment(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.Set(ctx, "k2", 7, 10*time.Second))

	counts, err := s.GetMany(ctx, []string{"k1", "k2", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"k1": 2, "k2": 7}, counts)

	counts, err = s.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestRedisStoreExpiry(t *testing.T) {
	s, server := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", 1, 10*time.Second))
	assert.Equal(t, 10*time.Second, server.TTL("k1"))

	server.FastForward(11 * time.Second)

	_, err := s.Increment(ctx, "k1")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	counts, err := s.GetMany(ctx, []string{"k1"})
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestRedisStoreIgnoresForeignValues(t *testing.T) {
	s, server := newTestRedisStore(t)
	ctx := context.Background()

	// A non-numeric value under one key must not poison the bulk read.
	require.NoError(t, server.Set("k1", "not-a-number"))
	require.NoError(t, s.Set(ctx, "k2", 3, 10*time.Second))

	counts, err := s.GetMany(ctx, []string{"k1", "k2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"k2": 3}, counts)
}
