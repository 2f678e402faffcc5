package throttle

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/castlebay/throttle/store"
)

// ThrottledForHeader is the advisory header carried by a denial: the
// number of seconds after which a retry has a chance of being admitted.
const ThrottledForHeader = "X-Throttled-For"

// AnonymousPolicy decides what a configured Throttle does with anonymous
// identities.
type AnonymousPolicy int

const (
	// AnonymousDeny refuses anonymous requests outright, with no retry
	// hint and no store access. Callers that want anonymous traffic
	// limited as one actor should supply a shared synthetic ClientKey.
	AnonymousDeny AnonymousPolicy = iota

	// AnonymousAllow admits anonymous requests without counting them.
	AnonymousAllow
)

// Throttle makes per-client admission decisions against a shared counter
// store. It keeps no in-process state between calls: every decision
// recomputes its bucket boundaries from the clock and reads the store, so
// decisions survive process restarts and may be made concurrently from
// any number of goroutines, processes, or hosts sharing the same store.
//
// Admission is approximate, not exact. Time is quantized into buckets, so
// the counted rate can overshoot the true sliding-window rate by up to one
// bucket width at each end; and the decision's read and increment are not
// one atomic step, so concurrent requests for the same identity can exceed
// the limit by up to the concurrency level minus one. Both are accepted
// trade-offs for O(1), lock-free decisions.
type Throttle struct {
	rate      Rate
	store     store.CounterStore
	keys      KeyBuilder
	now       func() time.Time
	anonymous AnonymousPolicy
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithRate enables limiting with the given rate. Without it the Throttle
// admits everything and never touches the store.
func WithRate(rate Rate) Option {
	return func(t *Throttle) {
		t.rate = rate
	}
}

// WithKeyPrefix overrides the counter key prefix (default "throttle_").
func WithKeyPrefix(prefix string) Option {
	return func(t *Throttle) {
		t.keys.Prefix = prefix
	}
}

// WithClock injects the time source. Decisions quantize this clock onto
// epoch-aligned buckets, so hosts sharing a store should share a
// disciplined clock; tests use it to pin time.
func WithClock(now func() time.Time) Option {
	return func(t *Throttle) {
		t.now = now
	}
}

// WithAnonymousPolicy overrides the handling of anonymous identities
// (default AnonymousDeny).
func WithAnonymousPolicy(p AnonymousPolicy) Option {
	return func(t *Throttle) {
		t.anonymous = p
	}
}

// New builds a Throttle over the given counter store. The store may be nil
// only when no rate is configured, since an unconfigured Throttle performs
// no store access.
func New(counters store.CounterStore, opts ...Option) (*Throttle, error) {
	t := &Throttle{
		store: counters,
		keys:  KeyBuilder{Prefix: DefaultKeyPrefix},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if !t.rate.isZero() && t.store == nil {
		return nil, errors.New("throttle: a rate is configured but no counter store was given")
	}
	return t, nil
}

// Allow decides whether a request from the identity may proceed. The
// suffix partitions the identity's quota per protected operation; pass ""
// for a single shared quota.
//
// The returned headers are meant to be copied verbatim onto the response:
// empty on admission, and carrying X-Throttled-For with an advisory wait
// in seconds on denial. The hint is best-effort; requests racing in
// before the retry can still exhaust the quota. A denial is a normal
// outcome, not an error; the error return is reserved for store failures,
// which propagate unmodified with the request denied.
func (t *Throttle) Allow(ctx context.Context, id Identity, suffix string) (bool, map[string]string, error) {
	headers := map[string]string{}

	if t.rate.isZero() {
		return true, headers, nil
	}
	if id == nil || id.Anonymous() {
		return t.anonymous == AnonymousAllow, headers, nil
	}

	key := t.keys.Key(id, suffix)
	now := t.now().Unix()
	starts := t.rate.bucketStarts(now)

	keys := make([]string, len(starts))
	for i, start := range starts {
		keys[i] = bucketKey(key, start)
	}

	counts, err := t.store.GetMany(ctx, keys)
	if err != nil {
		return false, headers, err
	}

	var made int64
	for _, k := range keys {
		made += counts[k]
	}

	if made >= t.rate.limit {
		// Oldest contributing bucket anchors the retry hint.
		for i := len(starts) - 1; i >= 0; i-- {
			if counts[keys[i]] > 0 {
				wait := t.rate.retryAfter(now, starts[i])
				headers[ThrottledForHeader] = strconv.FormatInt(wait, 10)
				break
			}
		}
		return false, headers, nil
	}

	// keys[0] is the bucket containing now.
	if _, err := t.store.Increment(ctx, keys[0]); err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			return false, headers, err
		}
		if err := t.store.Set(ctx, keys[0], 1, t.rate.TTL()); err != nil {
			return false, headers, err
		}
	}
	return true, headers, nil
}

// Rate returns the configured rate; the zero Rate means unlimited.
func (t *Throttle) Rate() Rate { return t.rate }
