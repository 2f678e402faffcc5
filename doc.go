/*
Package throttle rate-limits requests per authenticated client over a
trailing time window, using a shared counter store as its only state.

Instead of remembering every request, the throttle groups requests into
fixed-width time buckets and keeps one counter per bucket in the store.
A decision reads the handful of buckets covering the window in a single
bulk read, so its cost is bounded by the bucket count, never by how many
requests a client has made. The price is precision: the counted rate can
overshoot a true sliding window by up to one bucket width at each end,
and concurrent requests can briefly exceed the limit because the read and
the increment are separate store operations. Both are deliberate.

Example:

	rate, err := throttle.NewRate(100, time.Hour)
	if err != nil {
		log.Fatal(err)
	}

	counters := store.NewRedisStore(redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	}))

	th, err := throttle.New(counters, throttle.WithRate(rate))
	if err != nil {
		log.Fatal(err)
	}

	allowed, headers, err := th.Allow(ctx, throttle.ClientKey("user-42"), "")

On denial the headers carry X-Throttled-For, an advisory wait in seconds,
ready to be copied onto an HTTP response; HTTPMiddleware does exactly
that for net/http and mux handler chains.

A suffix on Allow partitions one client's quota per protected operation.
A Throttle constructed without a rate admits everything and never touches
the store, which is the normal configuration for anonymous or internal
traffic.

The store backends live in the store subpackage: Redis for a limit shared
across processes and hosts, an in-process map for tests and single
instances, and a ristretto-backed variant that bounds its own memory.
Hosts sharing a store quantize time onto epoch-aligned buckets, so their
clocks should agree; the clock subpackage has an NTP-disciplined time
source for that.
*/
package throttle
