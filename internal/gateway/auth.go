package gateway

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ldp-wms/tenant-core/internal/jwtverify"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// BearerAuth verifies the bearer token, extracts its tenant claim, and
// rejects cross-tenant access when the caller also sent an (untrusted)
// tenant-id header that disagrees with the token — adapted from the
// teacher's AuthMiddleware tenant-mismatch check in middleware/auth.go.
// A signature, expiry, or structural failure yields 401; a validly
// signed token missing its tenant claim yields 403.
func BearerAuth(verifier *jwtverify.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				slog.Warn("gateway: token rejected", "error", err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if claims.TenantID == "" {
				slog.Warn("gateway: token carries no tenant claim")
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			tenantID, err := tenant.NewID(claims.TenantID)
			if err != nil {
				slog.Warn("gateway: token carries malformed tenant id", "tenant_id", claims.TenantID)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if headerTenant := r.Header.Get("tenant-id"); headerTenant != "" && headerTenant != tenantID.String() {
				slog.Warn("gateway: cross-tenant request blocked",
					"token_tenant", tenantID.String(), "header_tenant", headerTenant)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			tc := tenant.Context{
				TenantID: tenantID,
				UserID:   claims.Subject,
				Roles:    claims.Roles,
			}
			ctx := tenant.Bind(r.Context(), tc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	prefix, token, found := strings.Cut(header, " ")
	if !found || prefix != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}
