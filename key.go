package throttle

import "strconv"

// DefaultKeyPrefix namespaces throttle counters within a shared store.
const DefaultKeyPrefix = "throttle_"

// KeyBuilder derives counter-store keys from a client identity and an
// optional suffix. The suffix lets a single identity carry independent
// counters for different protected operations; distinct (identity, suffix)
// pairs never collide and the same pair always yields the same key, so
// counters accumulate correctly across calls.
type KeyBuilder struct {
	Prefix string
}

// Key builds the counter family key for an identity and suffix.
func (kb KeyBuilder) Key(id Identity, suffix string) string {
	return kb.Prefix + id.ID() + suffix
}

// bucketKey appends the bucket boundary to a family key, producing the
// store key for one bucket's counter.
func bucketKey(key string, start int64) string {
	return key + "_b" + strconv.FormatInt(start, 10)
}
