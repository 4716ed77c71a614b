// Package tenant implements the tenant identifier and context carrier:
// a validated identifier value type and a context carrier bound
// exclusively through context.Context, never a goroutine-local or
// package-level global.
package tenant

import (
	"errors"
	"regexp"
)

// ErrInvalidTenantID is returned when a candidate identifier fails the
// character-set or length check.
var ErrInvalidTenantID = errors.New("invalid tenant id")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,50}$`)

// ID is an opaque, printable tenant identifier, 1-50 characters from
// [A-Za-z0-9_-]. Equality is by value; it is the stable foreign key
// embedded in issued tokens as the tenant_id claim.
type ID string

// NewID validates and constructs an ID. It is the only way to obtain one
// outside of trusted deserialization paths (JWT claim, catalog row) that
// have already been validated once.
func NewID(raw string) (ID, error) {
	if !idPattern.MatchString(raw) {
		return "", ErrInvalidTenantID
	}
	return ID(raw), nil
}

// String returns the underlying identifier.
func (id ID) String() string {
	return string(id)
}
