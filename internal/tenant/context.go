package tenant

import (
	"context"
	"errors"
)

// ErrMissingTenantContext is returned by FromContext when no tenant context
// has been bound. Consumers must raise this rather than substitute a
// default.
var ErrMissingTenantContext = errors.New("missing tenant context")

// contextKey is unexported so no other package can collide with or forge
// this context value.
type contextKey struct{}

var ctxKey = contextKey{}

// Context is the per-request scoped binding carrying the authenticated
// tenant, user, and role set. It is set by
// the service-side interceptor on entry and read by persistence/domain
// code; it must never leak across requests or async boundaries without an
// explicit copy of the context.Context it rides on.
type Context struct {
	TenantID ID
	UserID   string
	Roles    []string
}

// Bind returns a derived context.Context carrying tc. It does not mutate
// ctx; callers must use the returned context for everything downstream.
func Bind(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey, tc)
}

// FromContext extracts the bound tenant context. Returns
// ErrMissingTenantContext if nothing was bound in this request's lifetime.
func FromContext(ctx context.Context) (Context, error) {
	v := ctx.Value(ctxKey)
	if v == nil {
		return Context{}, ErrMissingTenantContext
	}
	tc, ok := v.(Context)
	if !ok {
		return Context{}, ErrMissingTenantContext
	}
	return tc, nil
}

// MustFromContext extracts the bound tenant context and panics if absent.
// Reserved for code paths a prior middleware guarantees have already bound
// one — using it elsewhere turns a bug into a crash instead of a clean 500.
func MustFromContext(ctx context.Context) Context {
	tc, err := FromContext(ctx)
	if err != nil {
		panic("tenant: " + err.Error())
	}
	return tc
}

// HasRole reports whether the role set contains role. Roles are a flat
// set at the token level; any hierarchy expansion is a service-local
// concern layered on top of this.
func (c Context) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
