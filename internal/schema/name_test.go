package schema_test

import (
	"testing"

	"github.com/ldp-wms/tenant-core/internal/schema"
	"github.com/ldp-wms/tenant-core/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Deterministic(t *testing.T) {
	id, err := tenant.NewID("ldp-123")
	require.NoError(t, err)

	assert.Equal(t, schema.Name("tenant_ldp_123_schema"), schema.Resolve(id))
	assert.Equal(t, schema.Resolve(id), schema.Resolve(id))
}

func TestResolve_Sanitizes(t *testing.T) {
	id, err := tenant.NewID("LDP-Acme_01")
	require.NoError(t, err)

	got := schema.Resolve(id)
	assert.Equal(t, schema.Name("tenant_ldp_acme_01_schema"), got)
}

func TestName_Valid(t *testing.T) {
	assert.True(t, schema.Name("tenant_ldp_123_schema").Valid())
	assert.False(t, schema.Name("tenant_ldp-123_schema").Valid())
	assert.False(t, schema.Name("tenant_ldp_123_schema; DROP TABLE users;").Valid())
	assert.False(t, schema.Name("not_a_schema_name").Valid())
}

func TestResolve_FixedPointOnAlreadySanitizedInput(t *testing.T) {
	// sanitize(sanitize(t)) = sanitize(t): an id that is already all
	// lowercase [a-z0-9_] passes through sanitize unchanged.
	id, err := tenant.NewID("already_safe_123")
	require.NoError(t, err)

	assert.Equal(t, schema.Name("tenant_already_safe_123_schema"), schema.Resolve(id))
}
