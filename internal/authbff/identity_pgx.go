package authbff

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// BcryptIdentityProvider is the default/dev IdentityProvider, adapted
// from the teacher's AuthService.Login + BcryptHasher, querying the
// catalog schema's users table directly via pgx rather than sqlc.
type BcryptIdentityProvider struct {
	pool *pgxpool.Pool
	mfa  *MFA
	cost int

	mu        sync.Mutex
	pending   map[string]pendingMFA // preAuthToken -> user awaiting a code
	issuerURL string
}

type pendingMFA struct {
	userID    string
	tenantID  tenant.ID
	email     string
	role      string
	mfaSecret string
	expiresAt time.Time
}

func NewBcryptIdentityProvider(pool *pgxpool.Pool, mfa *MFA) *BcryptIdentityProvider {
	return &BcryptIdentityProvider{
		pool:    pool,
		mfa:     mfa,
		cost:    12,
		pending: make(map[string]pendingMFA),
	}
}

func (p *BcryptIdentityProvider) Authenticate(ctx context.Context, tenantID tenant.ID, username, password string) (Identity, string, error) {
	var userID, passwordHash, role string
	var mfaEnabled bool
	var mfaSecret string

	row := p.pool.QueryRow(ctx, `
		SELECT id, password_hash, role, mfa_enabled, mfa_secret
		FROM users
		WHERE email = $1 AND tenant_id = $2 AND disabled = false
	`, username, tenantID.String())

	if err := row.Scan(&userID, &passwordHash, &role, &mfaEnabled, &mfaSecret); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, "", ErrInvalidCredentials
		}
		return Identity{}, "", fmt.Errorf("authbff: lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return Identity{}, "", ErrInvalidCredentials
	}

	if mfaEnabled {
		preAuthToken, err := GenerateRawToken()
		if err != nil {
			return Identity{}, "", fmt.Errorf("authbff: generate pre-auth token: %w", err)
		}
		p.mu.Lock()
		p.pending[preAuthToken] = pendingMFA{
			userID:    userID,
			tenantID:  tenantID,
			email:     username,
			role:      role,
			mfaSecret: mfaSecret,
			expiresAt: time.Now().Add(preAuthTTL),
		}
		p.mu.Unlock()
		return Identity{}, preAuthToken, ErrMFARequired
	}

	return Identity{UserID: userID, TenantID: tenantID, Email: username, Roles: []string{role}}, "", nil
}

func (p *BcryptIdentityProvider) VerifyMFA(ctx context.Context, preAuthToken, code string) (Identity, error) {
	p.mu.Lock()
	entry, ok := p.pending[preAuthToken]
	if ok {
		delete(p.pending, preAuthToken)
	}
	p.mu.Unlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return Identity{}, ErrInvalidMFACode
	}
	if !p.mfa.ValidateCode(code, entry.mfaSecret) {
		return Identity{}, ErrInvalidMFACode
	}

	return Identity{UserID: entry.userID, TenantID: entry.tenantID, Email: entry.email, Roles: []string{entry.role}}, nil
}

func (p *BcryptIdentityProvider) LoadIdentity(ctx context.Context, tenantID tenant.ID, userID string) (Identity, error) {
	var email, role string
	row := p.pool.QueryRow(ctx, `
		SELECT email, role FROM users WHERE id = $1 AND tenant_id = $2 AND disabled = false
	`, userID, tenantID.String())

	if err := row.Scan(&email, &role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("authbff: load identity: %w", err)
	}
	return Identity{UserID: userID, TenantID: tenantID, Email: email, Roles: []string{role}}, nil
}

// HashPassword is a provisioning helper for seeding/creating users
// outside the login path (e.g. a tenant admin invite flow).
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", fmt.Errorf("authbff: hash password: %w", err)
	}
	return string(b), nil
}
