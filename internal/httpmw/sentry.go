package httpmw

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// TagTenant adds the tenant identifier to the current Sentry scope so
// errors can be filtered per tenant without the error body itself ever
// carrying it: error bodies never include tenant identifiers.
func TagTenant(ctx context.Context, tenantID, source string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("tenant_id", tenantID)
		scope.SetTag("tenant_source", source)
	})
}

// TagUser adds the authenticated user to the current Sentry scope.
func TagUser(ctx context.Context, userID, role string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: userID})
		scope.SetTag("role", role)
	})
}
