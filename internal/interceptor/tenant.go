// Package interceptor implements the service-side tenant context
// binding: every backing service behind the gateway trusts the
// tenant-id/user-id/role headers the gateway already injected and
// verified, and binds them into the request's context.Context for the
// rest of the request lifetime.
//
// Unlike the teacher's middleware.AuthMiddleware, this interceptor
// never validates a bearer token itself — by the time a request
// reaches a backing service, the gateway (component E) has already
// done that and overwritten these headers with verified values. A
// backing service sitting directly on the public internet would be a
// defect in this architecture, not something this middleware guards
// against.
package interceptor

import (
	"net/http"

	"github.com/ldp-wms/tenant-core/internal/httpkit"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

const (
	headerTenantID = "tenant-id"
	headerUserID   = "user-id"
	headerRole     = "role"
)

// TenantContext binds a tenant.Context derived from the request
// headers onto a derived context.Context that only this request's
// handler chain ever sees — no goroutine-local or package-level global
// carries this value.
func TenantContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawTenantID := r.Header.Get(headerTenantID)
		if rawTenantID == "" {
			httpkit.RespondError(w, http.StatusBadRequest, "tenant context required")
			return
		}

		tenantID, err := tenant.NewID(rawTenantID)
		if err != nil {
			httpkit.RespondError(w, http.StatusBadRequest, "invalid tenant id")
			return
		}

		tc := tenant.Context{
			TenantID: tenantID,
			UserID:   r.Header.Get(headerUserID),
			Roles:    splitRoles(r.Header.Get(headerRole)),
		}

		ctx := tenant.Bind(r.Context(), tc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func splitRoles(raw string) []string {
	if raw == "" {
		return nil
	}
	return []string{raw}
}
