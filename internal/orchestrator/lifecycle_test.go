package orchestrator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ldp-wms/tenant-core/internal/orchestrator"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

func TestTransition_ValidMoves(t *testing.T) {
	cases := []struct {
		from  tenant.Status
		to    tenant.Status
		event orchestrator.EventType
	}{
		{tenant.StatusPending, tenant.StatusActive, orchestrator.EventTenantActivated},
		{tenant.StatusActive, tenant.StatusSuspended, orchestrator.EventTenantSuspended},
		{tenant.StatusActive, tenant.StatusInactive, orchestrator.EventTenantDeactivated},
		{tenant.StatusSuspended, tenant.StatusActive, orchestrator.EventTenantActivated},
		{tenant.StatusSuspended, tenant.StatusInactive, orchestrator.EventTenantDeactivated},
		{tenant.StatusInactive, tenant.StatusActive, orchestrator.EventTenantReactivated},
	}

	for _, tc := range cases {
		event, err := orchestrator.Transition(tc.from, tc.to)
		assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.event, event, "%s -> %s", tc.from, tc.to)
	}
}

func TestTransition_InvalidMoves(t *testing.T) {
	cases := []struct {
		from tenant.Status
		to   tenant.Status
	}{
		{tenant.StatusPending, tenant.StatusSuspended},
		{tenant.StatusPending, tenant.StatusInactive},
		{tenant.StatusActive, tenant.StatusPending},
		{tenant.StatusSuspended, tenant.StatusPending},
		{tenant.StatusSuspended, tenant.StatusSuspended},
		{tenant.StatusInactive, tenant.StatusSuspended},
		{tenant.StatusInactive, tenant.StatusPending},
		{tenant.StatusInactive, tenant.StatusInactive},
	}

	for _, tc := range cases {
		_, err := orchestrator.Transition(tc.from, tc.to)
		assert.ErrorIs(t, err, orchestrator.ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
	}
}

func TestTransition_UnknownFromStatusIsInvalid(t *testing.T) {
	_, err := orchestrator.Transition(tenant.Status("BOGUS"), tenant.StatusActive)
	assert.ErrorIs(t, err, orchestrator.ErrInvalidTransition)
}
