// Command loadtest hammers a Throttle with concurrent synthetic clients
// and reports how many requests each one got through. Useful for eyeballing
// the overshoot the read-then-increment race allows under contention.
package main

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/semaphore"

	"github.com/castlebay/throttle"
	"github.com/castlebay/throttle/store"
)

type Config struct {
	Clients     int           `envconfig:"CLIENTS" default:"5"`
	Requests    int           `envconfig:"REQUESTS" default:"200"`
	Concurrency int64         `envconfig:"CONCURRENCY" default:"32"`
	RateLimit   int           `envconfig:"RATE_LIMIT" default:"50"`
	RateWindow  time.Duration `envconfig:"RATE_WINDOW" default:"10s"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	rate, err := throttle.NewRate(cfg.RateLimit, cfg.RateWindow)
	if err != nil {
		log.Fatalf("Error building rate: %v", err)
	}

	th, err := throttle.New(store.NewMemoryStore(), throttle.WithRate(rate))
	if err != nil {
		log.Fatalf("Error building throttle: %v", err)
	}

	ctx := context.Background()
	sem := semaphore.NewWeighted(cfg.Concurrency)

	var wg sync.WaitGroup
	for c := 0; c < cfg.Clients; c++ {
		client := throttle.ClientKey(uuid.NewString())

		var allowed, denied atomic.Int64
		for i := 0; i < cfg.Requests; i++ {
			if err := sem.Acquire(ctx, 1); err != nil {
				log.Fatalf("Error acquiring semaphore: %v", err)
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)

				ok, _, err := th.Allow(ctx, client, "")
				switch {
				case err != nil:
					slog.Error("allow failed", slog.Any("error", err))
				case ok:
					allowed.Add(1)
				default:
					denied.Add(1)
				}
			}()
		}
		wg.Wait()

		slog.Info("client finished",
			slog.String("client", client.ID()),
			slog.Int64("allowed", allowed.Load()),
			slog.Int64("denied", denied.Load()),
			slog.Int("limit", cfg.RateLimit),
		)
	}
}
