package tenant_test

import (
	"strings"
	"testing"

	"github.com/ldp-wms/tenant-core/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_Valid(t *testing.T) {
	id, err := tenant.NewID("ldp-123")
	require.NoError(t, err)
	assert.Equal(t, "ldp-123", id.String())
}

func TestNewID_RejectsEmpty(t *testing.T) {
	_, err := tenant.NewID("")
	assert.ErrorIs(t, err, tenant.ErrInvalidTenantID)
}

func TestNewID_RejectsTooLong(t *testing.T) {
	_, err := tenant.NewID(strings.Repeat("a", 51))
	assert.ErrorIs(t, err, tenant.ErrInvalidTenantID)
}

func TestNewID_RejectsBadCharacters(t *testing.T) {
	for _, raw := range []string{"ldp 123", "ldp/123", "ldp;drop", "tenant_id=$1"} {
		_, err := tenant.NewID(raw)
		assert.ErrorIsf(t, err, tenant.ErrInvalidTenantID, "expected rejection for %q", raw)
	}
}

func TestNewID_AcceptsBoundaryLength(t *testing.T) {
	id, err := tenant.NewID(strings.Repeat("a", 50))
	require.NoError(t, err)
	assert.Len(t, id.String(), 50)
}
