package gateway

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ldp-wms/tenant-core/internal/tenant"
	"github.com/ldp-wms/tenant-core/internal/tenantauthority"
)

// TenantStatusGate is the fast-path status check against the tenant
// authority's cache. A suspended or unknown tenant never reaches the
// backend.
func TenantStatusGate(authority *tenantauthority.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, err := tenant.FromContext(r.Context())
			if err != nil {
				// BearerAuth must run before this middleware in the chain.
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			record, err := authority.GetTenant(r.Context(), tc.TenantID)
			if err != nil {
				if errors.Is(err, tenantauthority.ErrCircuitOpen) {
					slog.Error("gateway: tenant authority circuit open", "tenant_id", tc.TenantID.String())
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				slog.Error("gateway: tenant authority lookup failed", "error", err)
				http.Error(w, "bad gateway", http.StatusBadGateway)
				return
			}

			if record == nil {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if !record.ServingTraffic() {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
