package tenant_test

import (
	"context"
	"testing"

	"github.com/ldp-wms/tenant-core/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_AbsentReturnsError(t *testing.T) {
	_, err := tenant.FromContext(context.Background())
	assert.ErrorIs(t, err, tenant.ErrMissingTenantContext)
}

func TestBindThenFromContext_RoundTrips(t *testing.T) {
	id, err := tenant.NewID("ldp-123")
	require.NoError(t, err)

	tc := tenant.Context{TenantID: id, UserID: "user-1", Roles: []string{"viewer"}}
	ctx := tenant.Bind(context.Background(), tc)

	got, err := tenant.FromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, tc, got)
}

func TestBind_DoesNotMutateParent(t *testing.T) {
	id, _ := tenant.NewID("ldp-123")
	parent := context.Background()
	child := tenant.Bind(parent, tenant.Context{TenantID: id})

	_, err := tenant.FromContext(parent)
	assert.ErrorIs(t, err, tenant.ErrMissingTenantContext)

	_, err = tenant.FromContext(child)
	assert.NoError(t, err)
}

func TestMustFromContext_PanicsWhenAbsent(t *testing.T) {
	assert.Panics(t, func() {
		tenant.MustFromContext(context.Background())
	})
}

func TestHasRole(t *testing.T) {
	tc := tenant.Context{Roles: []string{"admin", "viewer"}}
	assert.True(t, tc.HasRole("admin"))
	assert.False(t, tc.HasRole("editor"))
}
