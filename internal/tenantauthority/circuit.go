package tenantauthority

import (
	"sync"
	"time"
)

// circuitState is the state of the circuit breaker guarding calls to
// the orchestrator.
type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// circuitBreaker prevents hammering the orchestrator once it starts
// failing: it opens after N consecutive failures and half-opens after
// a cooldown. Adapted from the pack's webhook circuit breaker; the
// teacher itself has no circuit breaker of its own.
type circuitBreaker struct {
	mu sync.RWMutex

	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration

	state           circuitState
	failures        int
	successCount    int
	lastFailureTime time.Time
}

func newCircuitBreaker(failureThreshold, successThreshold int, recoveryTimeout time.Duration) *circuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if successThreshold <= 0 {
		successThreshold = 2
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 30 * time.Second
	}
	return &circuitBreaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            circuitClosed,
	}
}

func (cb *circuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		return true
	case circuitOpen:
		if time.Since(cb.lastFailureTime) > cb.recoveryTimeout {
			cb.state = circuitHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case circuitHalfOpen:
		return true
	default:
		return false
	}
}

func (cb *circuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		cb.failures = 0
	case circuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = circuitClosed
			cb.failures = 0
			cb.successCount = 0
		}
	}
}

func (cb *circuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = time.Now()

	switch cb.state {
	case circuitClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.state = circuitOpen
		}
	case circuitHalfOpen:
		cb.state = circuitOpen
		cb.failures = cb.failureThreshold
		cb.successCount = 0
	}
}

func (cb *circuitBreaker) State() circuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.state == circuitOpen && time.Since(cb.lastFailureTime) > cb.recoveryTimeout {
		return circuitHalfOpen
	}
	return cb.state
}
