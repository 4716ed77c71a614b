// Package gateway implements the edge of the system: the single
// internet-facing process that terminates bearer tokens, enforces
// tenant isolation before a request ever reaches a backend service,
// and proxies the result.
package gateway

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/ldp-wms/tenant-core/internal/httpmw"
	"github.com/ldp-wms/tenant-core/internal/jwtverify"
	"github.com/ldp-wms/tenant-core/internal/ratelimit"
	"github.com/ldp-wms/tenant-core/internal/tenantauthority"
)

// Config wires the concrete dependencies of the 9-step pipeline.
type Config struct {
	AllowedOrigins []string
	Verifier       *jwtverify.Verifier
	Authority      *tenantauthority.Client
	TenantLimiter  *ratelimit.Limiter
	PublicRPS      rate.Limit
	PublicBurst    int
	PublicPrefixes []string // paths that bypass steps 2-5, e.g. /auth/login, /health
	Routes         []Route
}

// New builds the gateway's chi.Mux with every pipeline step wired in
// order: request id, panic recovery, request logging, CORS,
// correlation id, then either the public IP rate limit (for
// PublicPrefixes) or bearer verification with tenant-claim extraction
// and cross-tenant defense, status gate, header injection and tenant
// rate limiting, and finally routing.
func New(cfg Config) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(httpmw.Recovery)
	router.Use(httpmw.RequestLogger)
	router.Use(CORS(cfg.AllowedOrigins))
	router.Use(CorrelationID)

	ipLimiter := NewIPRateLimiter(cfg.PublicRPS, cfg.PublicBurst)

	proxy := NewProxy(cfg.Routes)

	router.Group(func(r chi.Router) {
		r.Use(ipLimiter.Middleware)
		for _, prefix := range cfg.PublicPrefixes {
			r.Handle(prefix+"*", proxy)
		}
	})

	router.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.Verifier))
		r.Use(TenantStatusGate(cfg.Authority))
		r.Use(InjectHeaders)
		r.Use(TenantRateLimit(cfg.TenantLimiter))
		r.Handle("/*", proxy)
	})

	return router
}

// DefaultPublicLimiter returns the teacher's original IP-limiter
// defaults, keyed by source address, unchanged from the
// teacher's rate of 1 req/s burst 5.
func DefaultPublicLimiter() (rate.Limit, int) {
	return rate.Every(time.Second), 5
}
