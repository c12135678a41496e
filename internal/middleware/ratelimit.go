package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/growtools/backend/internal/handler"
	"golang.org/x/time/rate"
)

// VisitorStore hands out and expires per-client token buckets. It is an
// explicit interface so production can back it with an external cache
// while the in-memory map stays the default for single-process deploys
// and tests.
type VisitorStore interface {
	// Limiter returns the bucket for the client, creating it on first use.
	Limiter(key string) *rate.Limiter
	// Forget drops buckets idle for longer than the given duration.
	Forget(idle time.Duration)
}

// MemoryVisitorStore is the default in-memory VisitorStore.
type MemoryVisitorStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryVisitorStore creates a store minting buckets with the given
// refill rate and burst.
func NewMemoryVisitorStore(rps float64, burst int) *MemoryVisitorStore {
	return &MemoryVisitorStore{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// Limiter returns the bucket for the key, creating it on first use.
func (s *MemoryVisitorStore) Limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Forget drops buckets idle for longer than the given duration.
func (s *MemoryVisitorStore) Forget(idle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, v := range s.visitors {
		if time.Since(v.lastSeen) > idle {
			delete(s.visitors, key)
		}
	}
}

// RateLimiter rate limits requests per client IP against a VisitorStore.
type RateLimiter struct {
	store VisitorStore
}

// NewRateLimiter creates a limiter over the default in-memory store and
// starts its cleanup loop.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{store: NewMemoryVisitorStore(rps, burst)}
	go rl.cleanup()
	return rl
}

// NewRateLimiterWithStore creates a limiter over a custom store. The
// caller owns the store's cleanup lifecycle.
func NewRateLimiterWithStore(store VisitorStore) *RateLimiter {
	return &RateLimiter{store: store}
}

// Middleware returns an HTTP middleware that rate limits by client IP.
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := extractClientIP(r)

			if !rl.store.Limiter(ip).Allow() {
				w.Header().Set("Retry-After", "1")
				handler.JSON(w, http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded, try again later",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// StrictRateLimiter returns a stricter rate limiter (for login endpoints).
func StrictRateLimiter() func(next http.Handler) http.Handler {
	rl := NewRateLimiter(1, 5) // 1 req/sec, burst of 5
	return rl.Middleware()
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.store.Forget(3 * time.Minute)
	}
}

// extractClientIP returns the client IP, preferring proxy headers if available.
func extractClientIP(r *http.Request) string {
	// Check X-Real-IP first (set by Nginx)
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	// Check X-Forwarded-For (first entry is the original client)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		return strings.TrimSpace(parts[0])
	}
	// Fall back to RemoteAddr, stripping port
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
