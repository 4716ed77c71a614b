package gateway

import (
	"math"
	"net/http"
	"strconv"

	"github.com/ldp-wms/tenant-core/internal/ratelimit"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// TenantRateLimit is a shared, Redis-backed bucket keyed by tenant id,
// so the budget holds across every gateway replica — unlike the
// teacher's per-instance IP limiter, kept here only for non-auth
// paths.
func TenantRateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, err := tenant.FromContext(r.Context())
			if err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			result, err := limiter.Allow(r.Context(), "tenant:"+tc.TenantID.String())
			if err != nil {
				// Fail open on store errors: an unreachable Redis must not
				// take the whole tenant offline.
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed() {
				retrySeconds := int(math.Ceil(result.RetryAfter().Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds))
				w.Header().Set("X-RateLimit-Remaining", "0")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
