package throttle

// Identity is the capability a client object must expose to be throttled:
// a stable identifier, and whether the client is anonymous. Counters are
// scoped per identifier, so two requests with the same ID share a quota.
type Identity interface {
	ID() string
	Anonymous() bool
}

// ClientKey is the simplest Identity: a plain string identifier. The empty
// string is the anonymous state. Callers that want anonymous traffic to
// share one quota instead of being denied can hand out a fixed synthetic
// key such as ClientKey("anon").
type ClientKey string

// ID returns the key itself.
func (c ClientKey) ID() string { return string(c) }

// Anonymous reports whether the key is empty.
func (c ClientKey) Anonymous() bool { return c == "" }
