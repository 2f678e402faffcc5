package throttle_test

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/castlebay/throttle"
	"github.com/castlebay/throttle/store"
)

// ExampleThrottle shows a throttle over an in-process store: 100 requests
// per client per hour, counted in 6 minute buckets derived from the window.
func ExampleThrottle() {
	rate, err := throttle.NewRate(100, time.Hour)
	if err != nil {
		log.Fatal(err)
	}

	th, err := throttle.New(store.NewMemoryStore(), throttle.WithRate(rate))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		allowed, headers, err := th.Allow(ctx, throttle.ClientKey("user-42"), "")
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("request %d allowed: %v headers: %v", i, allowed, headers)
	}
}

// ExampleHTTPMiddleware shows how to rate-limit a mux router, with
// independent quotas per API key and anonymous requests denied.
func ExampleHTTPMiddleware() {
	rate, err := throttle.NewRate(100, time.Hour)
	if err != nil {
		log.Fatal(err)
	}

	th, err := throttle.New(store.NewMemoryStore(), throttle.WithRate(rate))
	if err != nil {
		log.Fatal(err)
	}

	identify := func(r *http.Request) throttle.Identity {
		return throttle.ClientKey(r.Header.Get("X-API-Key"))
	}

	r := mux.NewRouter()
	r.Use(throttle.HTTPMiddleware(th, identify))
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello, World!"))
	})
}

// ExampleThrottle_suffix shows one client carrying independent quotas for
// two protected operations.
func ExampleThrottle_suffix() {
	rate, err := throttle.NewRate(10, time.Minute)
	if err != nil {
		log.Fatal(err)
	}

	th, err := throttle.New(store.NewMemoryStore(), throttle.WithRate(rate))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	id := throttle.ClientKey("user-42")

	// Exhausting the upload quota leaves the search quota untouched.
	uploadOK, _, _ := th.Allow(ctx, id, "upload")
	searchOK, _, _ := th.Allow(ctx, id, "search")
	log.Printf("upload: %v search: %v", uploadOK, searchOK)
}
