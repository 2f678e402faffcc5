package throttle

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, th *Throttle) *mux.Router {
	t.Helper()

	identify := func(r *http.Request) Identity {
		return ClientKey(r.Header.Get("X-API-Key"))
	}

	r := mux.NewRouter()
	r.Use(HTTPMiddleware(th, identify))
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

func doRequest(router *mux.Router, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHTTPMiddlewareDeniesOverQuota(t *testing.T) {
	rate, err := NewRate(1, 10*time.Second, WithBucketWidth(2*time.Second))
	require.NoError(t, err)

	th, _, _ := newTestThrottle(t, 1_000_000_000, WithRate(rate))
	router := newTestRouter(t, th)

	rec := doRequest(router, "user-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(ThrottledForHeader))

	rec = doRequest(router, "user-1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "12", rec.Header().Get(ThrottledForHeader))

	// A different client still has a quota.
	rec = doRequest(router, "user-2")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPMiddlewareAnonymous(t *testing.T) {
	rate, err := NewRate(1, 10*time.Second, WithBucketWidth(2*time.Second))
	require.NoError(t, err)

	th, _, _ := newTestThrottle(t, 1_000_000_000, WithRate(rate))
	router := newTestRouter(t, th)

	rec := doRequest(router, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Header().Get(ThrottledForHeader), "anonymous denial has no retry hint")
}

func TestHTTPMiddlewareFailsClosedOnStoreError(t *testing.T) {
	rate, err := NewRate(1, 10*time.Second, WithBucketWidth(2*time.Second))
	require.NoError(t, err)

	th, err := New(errStore{err: errors.New("backend down")}, WithRate(rate))
	require.NoError(t, err)
	router := newTestRouter(t, th)

	rec := doRequest(router, "user-1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
