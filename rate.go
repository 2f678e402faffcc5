package throttle

import (
	"fmt"
	"time"
)

// DefaultBucketRatio is the fraction of the window used to derive the
// bucket width when none is given explicitly.
const DefaultBucketRatio = 0.1

// Rate describes how many requests are allowed over a trailing time window,
// and the bucket width used to quantize request timestamps for counting.
//
// Requests are not counted individually; they are grouped into bucket-sized
// intervals, so the bucket width is the minimum precision of when a request
// happened. The wider the bucket relative to the window, the fewer store
// reads per decision, but the longer a client over its quota waits before
// it is admitted again.
type Rate struct {
	limit  int64
	window int64 // seconds
	bucket int64 // seconds
}

// RateOption configures a Rate at construction.
type RateOption func(*rateConfig)

type rateConfig struct {
	bucket time.Duration
	ratio  float64
}

// WithBucketWidth sets an explicit bucket width instead of deriving one
// from the window.
func WithBucketWidth(d time.Duration) RateOption {
	return func(c *rateConfig) {
		c.bucket = d
	}
}

// WithBucketRatio sets the window fraction used to derive the bucket width.
// It is ignored when WithBucketWidth is also given.
func WithBucketRatio(ratio float64) RateOption {
	return func(c *rateConfig) {
		c.ratio = ratio
	}
}

// NewRate validates and builds a Rate. The limit must be positive and the
// window at least one second. Sub-second precision is not supported;
// durations are truncated to whole seconds. A derived bucket width that
// would round down to zero is clamped to one second.
func NewRate(limit int, window time.Duration, opts ...RateOption) (Rate, error) {
	cfg := rateConfig{ratio: DefaultBucketRatio}
	for _, opt := range opts {
		opt(&cfg)
	}

	if limit <= 0 {
		return Rate{}, fmt.Errorf("throttle: rate limit must be positive, got %d", limit)
	}
	windowSecs := int64(window / time.Second)
	if windowSecs <= 0 {
		return Rate{}, fmt.Errorf("throttle: rate window must be at least one second, got %v", window)
	}

	var bucketSecs int64
	if cfg.bucket != 0 {
		bucketSecs = int64(cfg.bucket / time.Second)
		if bucketSecs <= 0 {
			return Rate{}, fmt.Errorf("throttle: bucket width must be at least one second, got %v", cfg.bucket)
		}
	} else {
		if cfg.ratio <= 0 || cfg.ratio > 1 {
			return Rate{}, fmt.Errorf("throttle: bucket ratio must be in (0, 1], got %v", cfg.ratio)
		}
		bucketSecs = int64(float64(windowSecs) * cfg.ratio)
		if bucketSecs < 1 {
			bucketSecs = 1
		}
	}
	if bucketSecs > windowSecs {
		return Rate{}, fmt.Errorf("throttle: bucket width %ds exceeds window %ds", bucketSecs, windowSecs)
	}

	return Rate{
		limit:  int64(limit),
		window: windowSecs,
		bucket: bucketSecs,
	}, nil
}

// Limit returns the number of requests allowed per window.
func (r Rate) Limit() int { return int(r.limit) }

// Window returns the trailing window the limit is enforced over.
func (r Rate) Window() time.Duration { return time.Duration(r.window) * time.Second }

// BucketWidth returns the counting bucket width.
func (r Rate) BucketWidth() time.Duration { return time.Duration(r.bucket) * time.Second }

// BucketCount returns the number of whole buckets covering the window.
func (r Rate) BucketCount() int { return int(r.window / r.bucket) }

// TTL returns how long a bucket entry must live in the counter store: the
// window plus one bucket width of slack for lag and clock skew between
// decision time and the store's expiry sweep.
func (r Rate) TTL() time.Duration {
	return time.Duration(r.window+r.bucket) * time.Second
}

func (r Rate) isZero() bool { return r.limit == 0 }

// bucketStarts enumerates the bucket boundaries covering the trailing
// window at the given unix time, most recent first. Each boundary is
// quantized to t - t%bucket. The walk starts at the bucket containing now
// and steps backward while it stays inside the epoch-aligned window
// starting at now - now%window, yielding at most BucketCount()+1 entries.
// The bucket containing now is always included, even when the window is
// not evenly divisible and that bucket straddles the window start.
func (r Rate) bucketStarts(now int64) []int64 {
	cur := now - now%r.bucket
	first := now - now%r.window

	starts := make([]int64, 0, r.BucketCount()+1)
	starts = append(starts, cur)
	for i := 0; i < r.BucketCount(); i++ {
		cur -= r.bucket
		if cur < first {
			break
		}
		starts = append(starts, cur)
	}
	return starts
}

// retryAfter returns the advisory wait, in seconds, for a denied request
// given the start of the oldest bucket that contributed to the denial.
// The bucket stays visible to decisions until the window epoch advances
// past it (or, for a bucket straddling the window start, until it is no
// longer the current bucket); the hint covers that plus one extra bucket
// width of safety margin against boundary effects. Honoring the hint
// guarantees the contributing bucket is out of view, but intervening
// requests from the same client can still cause a denial.
func (r Rate) retryAfter(now, oldest int64) int64 {
	visibleUntil := oldest - oldest%r.window + r.window
	if end := oldest + r.bucket; end > visibleUntil {
		visibleUntil = end
	}
	return visibleUntil - now + r.bucket
}
