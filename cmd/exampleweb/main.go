package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/castlebay/throttle"
	"github.com/castlebay/throttle/clock"
	"github.com/castlebay/throttle/store"

	"github.com/gorilla/mux"
	"golang.org/x/exp/slog"
)

type Config struct {
	Port       int           `envconfig:"SERVER_PORT" default:"8080"`
	RateLimit  int           `envconfig:"RATE_LIMIT" default:"100"`
	RateWindow time.Duration `envconfig:"RATE_WINDOW" default:"60s"`
	RateBucket time.Duration `envconfig:"RATE_BUCKET" default:"0s"` // 0 derives from the window
	RedisURL   string        `envconfig:"REDIS_URL" default:"localhost:6379"`
	NTPServer  string        `envconfig:"NTP_SERVER" default:""` // empty uses the system clock
}

func main() {
	loadEnvFile()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	var rateOpts []throttle.RateOption
	if cfg.RateBucket > 0 {
		rateOpts = append(rateOpts, throttle.WithBucketWidth(cfg.RateBucket))
	}
	rate, err := throttle.NewRate(cfg.RateLimit, cfg.RateWindow, rateOpts...)
	if err != nil {
		log.Fatalf("Error building rate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	counters := store.NewRedisStore(rdb, store.WithTimeout(time.Second))

	opts := []throttle.Option{throttle.WithRate(rate)}
	if cfg.NTPServer != "" {
		ntpClock := clock.NewNTP(cfg.NTPServer)
		go ntpClock.Run(context.Background())
		opts = append(opts, throttle.WithClock(ntpClock.Now))
	}

	th, err := throttle.New(counters, opts...)
	if err != nil {
		log.Fatalf("Error building throttle: %v", err)
	}

	// Clients identify themselves with X-API-Key; requests without one are
	// anonymous and fall under the throttle's anonymous policy.
	identify := func(r *http.Request) throttle.Identity {
		return throttle.ClientKey(r.Header.Get("X-API-Key"))
	}

	r := mux.NewRouter()
	r.Use(LoggingMiddleware)
	r.Use(throttle.HTTPMiddleware(th, identify))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello, World!"))
	})

	slog.Info("listening", slog.Int("port", cfg.Port))
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), r))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and writes it to the response.
func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK, // Default to 200 OK if WriteHeader is not called.
		}

		next.ServeHTTP(recorder, r)

		log.Printf(
			"Method: %s | Path: %s | StatusCode: %d | RemoteAddr: %s | UserAgent: %s",
			r.Method,
			r.RequestURI,
			recorder.statusCode,
			r.RemoteAddr,
			r.UserAgent(),
		)
	})
}

func loadEnvFile() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Error loading .env file: %s", err)
		}
	} else if !os.IsNotExist(err) {
		slog.Warn(fmt.Sprintf("Unexpected error looking for .env file: %s", err))
	}
}
