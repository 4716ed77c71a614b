package gateway

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ldp-wms/tenant-core/internal/httpkit"
)

// IPRateLimiter is the non-tenant fallback limiter for public paths:
// /auth/login, /auth/refresh, /health, and /metrics never carry a
// verified tenant claim, so they're rate-limited by source address
// instead. Adapted directly from the teacher's IPRateLimiter in
// middleware/ratelimit.go.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewIPRateLimiter(rps rate.Limit, burst int) *IPRateLimiter {
	l := &IPRateLimiter{
		visitors: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
	go l.cleanupLoop()
	return l
}

func (l *IPRateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.visitors[key]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.visitors[key] = limiter
	}
	return limiter
}

func (l *IPRateLimiter) cleanupLoop() {
	for {
		time.Sleep(10 * time.Minute)
		l.mu.Lock()
		l.visitors = make(map[string]*rate.Limiter)
		l.mu.Unlock()
	}
}

// Middleware keys the bucket by client IP only (httpkit.ClientIP).
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := httpkit.ClientIP(r).String()

		if !l.get(key).Allow() {
			slog.Warn("gateway: ip rate limit exceeded", "ip", key, "path", r.URL.Path)
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
