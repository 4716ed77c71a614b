// Package authbff is the authentication BFF: the only component that
// speaks cookies. It adapts the teacher's
// internal/auth login/refresh/logout flow behind an IdentityProvider
// boundary so the BFF itself stays a thin transport layer over
// whatever identity store a deployment wires in.
package authbff

import (
	"context"
	"errors"

	"github.com/ldp-wms/tenant-core/internal/tenant"
)

var (
	ErrInvalidCredentials = errors.New("authbff: invalid credentials")
	ErrTenantRequired     = errors.New("authbff: tenant required")
	ErrMFARequired        = errors.New("authbff: mfa code required")
	ErrInvalidMFACode     = errors.New("authbff: invalid mfa code")
)

// Identity is what survives a successful authentication: enough to
// mint an access token and nothing more (no password hash, no raw
// MFA secret).
type Identity struct {
	UserID   string
	TenantID tenant.ID
	Email    string
	Roles    []string
}

// IdentityProvider is the external-collaborator boundary: the BFF
// never hashes passwords or queries users directly, it asks a
// provider. BcryptIdentityProvider (identity_pgx.go) is the
// default/dev implementation, adapted from the teacher's
// AuthService.Login.
type IdentityProvider interface {
	// Authenticate verifies username+password within tenantID. When
	// the identity has MFA enabled, it returns ErrMFARequired along
	// with a non-empty pre-auth token the caller must pass to VerifyMFA.
	Authenticate(ctx context.Context, tenantID tenant.ID, username, password string) (identity Identity, preAuthToken string, err error)

	// VerifyMFA completes a login that returned ErrMFARequired.
	VerifyMFA(ctx context.Context, preAuthToken, code string) (Identity, error)

	// LoadIdentity re-reads the current roles/email for a user already
	// proven by a valid refresh token, without touching a password.
	// Refresh uses this so a role change takes effect on the very next
	// token rotation rather than waiting for the access token to expire.
	LoadIdentity(ctx context.Context, tenantID tenant.ID, userID string) (Identity, error)
}
