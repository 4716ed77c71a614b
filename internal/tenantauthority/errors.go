package tenantauthority

import "errors"

var (
	// ErrTenantNotFound names an unknown tenant id. Client does not
	// return it: GetTenant reports an orchestrator 404 as a nil record
	// with a nil error.
	ErrTenantNotFound = errors.New("tenantauthority: tenant not found")
	// ErrCircuitOpen is returned instead of calling the orchestrator
	// while the circuit breaker is open.
	ErrCircuitOpen = errors.New("tenantauthority: circuit open")
	// ErrOrchestratorUnavailable wraps any non-2xx/404 response or
	// transport failure talking to the orchestrator.
	ErrOrchestratorUnavailable = errors.New("tenantauthority: orchestrator unavailable")
)
