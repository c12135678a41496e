package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterMiddleware(t *testing.T) {
	t.Parallel()

	handlerFn := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allows within burst then throttles", func(t *testing.T) {
		rl := NewRateLimiterWithStore(NewMemoryVisitorStore(1, 2))
		wrapped := rl.Middleware()(handlerFn)

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		require.Equal(t, []int{200, 200, 429}, codes)
	})

	t.Run("buckets are per client", func(t *testing.T) {
		rl := NewRateLimiterWithStore(NewMemoryVisitorStore(1, 1))
		wrapped := rl.Middleware()(handlerFn)

		first := httptest.NewRequest(http.MethodGet, "/", nil)
		first.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, first)
		require.Equal(t, http.StatusOK, rec.Code)

		second := httptest.NewRequest(http.MethodGet, "/", nil)
		second.RemoteAddr = "10.0.0.2:1234"
		rec = httptest.NewRecorder()
		wrapped.ServeHTTP(rec, second)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forget drops idle buckets", func(t *testing.T) {
		store := NewMemoryVisitorStore(1, 1)
		limiter := store.Limiter("10.0.0.1")
		require.True(t, limiter.Allow())
		require.False(t, store.Limiter("10.0.0.1").Allow())

		// With a zero cutoff every bucket counts as idle; the next lookup
		// mints a fresh one.
		time.Sleep(time.Millisecond)
		store.Forget(0)
		require.True(t, store.Limiter("10.0.0.1").Allow())
	})
}

func TestExtractClientIP(t *testing.T) {
	t.Parallel()

	t.Run("prefers X-Real-IP", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "1.2.3.4")
		req.Header.Set("X-Forwarded-For", "5.6.7.8")
		require.Equal(t, "1.2.3.4", extractClientIP(req))
	})

	t.Run("first forwarded entry wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "5.6.7.8, 9.10.11.12")
		require.Equal(t, "5.6.7.8", extractClientIP(req))
	})

	t.Run("falls back to remote addr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:4567"
		require.Equal(t, "10.0.0.1", extractClientIP(req))
	})
}
