package clock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
	"golang.org/x/exp/slog"
)

// NTP is a time source that corrects the local clock by an offset measured
// against an NTP server. Now never blocks on the network: it applies the
// most recently measured offset (zero until the first sync completes).
type NTP struct {
	server   string
	interval time.Duration
	offset   atomic.Int64 // nanoseconds
}

// NTPOption configures an NTP clock.
type NTPOption func(*NTP)

// WithSyncInterval sets how often Run re-measures the offset (default 5m).
func WithSyncInterval(d time.Duration) NTPOption {
	return func(c *NTP) {
		c.interval = d
	}
}

// NewNTP builds an NTP clock against the given server, e.g. "pool.ntp.org".
func NewNTP(server string, opts ...NTPOption) *NTP {
	c := &NTP{
		server:   server,
		interval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the local time adjusted by the last measured offset.
func (c *NTP) Now() time.Time {
	return time.Now().Add(time.Duration(c.offset.Load()))
}

// Sync measures the offset once. A failed query keeps the previous offset.
func (c *NTP) Sync() error {
	resp, err := ntp.Query(c.server)
	if err != nil {
		return err
	}
	if err := resp.Validate(); err != nil {
		return err
	}
	c.offset.Store(int64(resp.ClockOffset))
	return nil
}

// Run syncs immediately and then on every interval until the context ends.
// Failures are logged and retried at the next interval.
func (c *NTP) Run(ctx context.Context) {
	if err := c.Sync(); err != nil {
		slog.Error("ntp sync failed", slog.String("server", c.server), slog.Any("error", err))
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sync(); err != nil {
				slog.Error("ntp sync failed", slog.String("server", c.server), slog.Any("error", err))
			}
		}
	}
}
