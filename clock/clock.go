// Package clock provides time sources for the throttle.
//
// Bucket boundaries are aligned to the Unix epoch, so every host sharing a
// counter store should derive them from roughly the same clock. System is
// fine when hosts run NTP themselves; NTP disciplines the process clock
// explicitly for environments where that cannot be assumed.
package clock

import "time"

// Clock is a zero-argument time provider. The throttle accepts any
// func() time.Time, so a Clock, a method value like (*NTP).Now, or a test
// stub all plug in the same way.
type Clock func() time.Time

// System returns the operating system clock.
func System() Clock {
	return time.Now
}

// Fixed returns a clock pinned to t. Intended for tests.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}
