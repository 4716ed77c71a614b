package gateway

import (
	"net/http"
	"strings"

	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// InjectHeaders overwrites the outbound tenant-id/user-id/role headers
// with values derived from the verified token, never the client's
// copies.
func InjectHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, err := tenant.FromContext(r.Context())
		if err != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		r.Header.Set("tenant-id", tc.TenantID.String())
		r.Header.Set("user-id", tc.UserID)
		r.Header.Set("role", strings.Join(tc.Roles, ","))

		next.ServeHTTP(w, r)
	})
}
