package throttle

import (
	"net/http"

	"golang.org/x/exp/slog"
)

// HTTPMiddleware rate-limits an HTTP handler chain. It is compatible with
// both standard net/http and mux routers. The identify function resolves
// the requesting client; return an anonymous Identity (for example
// ClientKey("")) for unauthenticated requests and let the Throttle's
// anonymous policy decide.
//
// Denials answer 429 with the Throttle's headers copied onto the response.
// Store failures answer 503: the middleware fails closed and logs, on the
// theory that a service unhealthy enough to lose its counter store should
// shed load rather than absorb it unmetered. Embedders that prefer
// availability can wrap their store in store.NewRetryStore or supply
// their own middleware. The Throttle itself takes no position.
func HTTPMiddleware(t *Throttle, identify func(r *http.Request) Identity) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, headers, err := t.Allow(r.Context(), identify(r), "")
			if err != nil {
				slog.Error("throttle: counter store failure", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}

			if !allowed {
				for k, v := range headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
