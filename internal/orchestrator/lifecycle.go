// Package orchestrator implements the tenant lifecycle orchestrator:
// tenant CRUD plus the PENDING/ACTIVE/SUSPENDED/INACTIVE state
// machine, adapted from the teacher's AuthService.CreateTenant with a
// new transition table the teacher never had (the teacher's tenants
// carry no lifecycle status at all).
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// ErrInvalidTransition is returned when a requested transition is not
// in the table below.
var ErrInvalidTransition = errors.New("orchestrator: invalid lifecycle transition")

// EventType names the five lifecycle events this state machine
// recognizes. Transition returns exactly one per allowed move; the
// schema-created event travels separately as eventbus.SchemaCreatedEvent.
type EventType string

const (
	EventTenantCreated     EventType = "TenantCreated"
	EventTenantActivated   EventType = "TenantActivated"
	EventTenantSuspended   EventType = "TenantSuspended"
	EventTenantDeactivated EventType = "TenantDeactivated"
	EventTenantReactivated EventType = "TenantReactivated"
)

// transitions is the full set of allowed status moves. Absence of an
// entry means the transition is forbidden.
var transitions = map[tenant.Status]map[tenant.Status]EventType{
	tenant.StatusPending: {
		tenant.StatusActive: EventTenantActivated,
	},
	tenant.StatusActive: {
		tenant.StatusSuspended: EventTenantSuspended,
		tenant.StatusInactive:  EventTenantDeactivated,
	},
	tenant.StatusSuspended: {
		tenant.StatusActive:   EventTenantActivated,
		tenant.StatusInactive: EventTenantDeactivated,
	},
	tenant.StatusInactive: {
		tenant.StatusActive: EventTenantReactivated,
	},
}

// Transition validates from->to against the table and returns the
// event that must accompany it. It performs no I/O; Service.Transition
// applies the state change and records the event in the audit log.
func Transition(from, to tenant.Status) (EventType, error) {
	byTarget, ok := transitions[from]
	if !ok {
		return "", fmt.Errorf("%w: from %s", ErrInvalidTransition, from)
	}
	event, ok := byTarget[to]
	if !ok {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return event, nil
}
