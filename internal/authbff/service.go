package authbff

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/ldp-wms/tenant-core/internal/audit"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// LoginResult mirrors the teacher's LoginResult but swaps the DB user
// row for the boundary-safe Identity, and the UUID tenant for the
// opaque tenant.ID.
type LoginResult struct {
	AccessToken    string
	AccessTokenTTL time.Duration
	RefreshToken   string
	PreAuthToken   string
	MFARequired    bool
	Identity       Identity
}

// Service ties an IdentityProvider, an Issuer, and a RefreshStore into
// the login/refresh/logout/identity-lookup flows. Adapted from the
// teacher's AuthService, generalized behind IdentityProvider so this
// tree never hashes a password itself.
type Service struct {
	identity IdentityProvider
	issuer   *Issuer
	refresh  RefreshStore
	audit    audit.AuditLogger
}

func NewService(identity IdentityProvider, issuer *Issuer, refresh RefreshStore, auditLogger audit.AuditLogger) *Service {
	return &Service{identity: identity, issuer: issuer, refresh: refresh, audit: auditLogger}
}

// Login authenticates a username/password pair within tenantID. When
// the identity requires MFA, the returned LoginResult carries only a
// PreAuthToken and MFARequired=true; no access or refresh token is
// issued until CompleteMFA succeeds.
func (s *Service) Login(ctx context.Context, tenantID tenant.ID, username, password string, ip net.IP, userAgent string) (*LoginResult, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}

	identity, preAuthToken, err := s.identity.Authenticate(ctx, tenantID, username, password)
	if err != nil {
		if errors.Is(err, ErrMFARequired) {
			s.logAudit(ctx, identity.UserID, audit.EventLoginFailed, tenantID, map[string]string{"reason": "mfa_required"})
			return &LoginResult{MFARequired: true, PreAuthToken: preAuthToken}, nil
		}
		s.logAudit(ctx, "", audit.EventLoginFailed, tenantID, map[string]string{"reason": "invalid_credentials"})
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, identity, ip, userAgent)
}

// CompleteMFA finishes a login that previously returned MFARequired.
func (s *Service) CompleteMFA(ctx context.Context, preAuthToken, code string, ip net.IP, userAgent string) (*LoginResult, error) {
	identity, err := s.identity.VerifyMFA(ctx, preAuthToken, code)
	if err != nil {
		return nil, ErrInvalidMFACode
	}
	return s.issueSession(ctx, identity, ip, userAgent)
}

func (s *Service) issueSession(ctx context.Context, identity Identity, ip net.IP, userAgent string) (*LoginResult, error) {
	accessToken, ttl, err := s.issuer.IssueAccessToken(identity)
	if err != nil {
		return nil, fmt.Errorf("authbff: issue access token: %w", err)
	}

	rawRefresh, err := GenerateRawToken()
	if err != nil {
		return nil, fmt.Errorf("authbff: generate refresh token: %w", err)
	}
	if err := s.refresh.Create(ctx, identity.UserID, identity.TenantID, rawRefresh, ip, userAgent); err != nil {
		return nil, fmt.Errorf("authbff: store refresh token: %w", err)
	}

	s.logAudit(ctx, identity.UserID, audit.EventLoginSuccess, identity.TenantID, map[string]string{"method": "password"})

	return &LoginResult{
		AccessToken:    accessToken,
		AccessTokenTTL: ttl,
		RefreshToken:   rawRefresh,
		Identity:       identity,
	}, nil
}

// Refresh rotates rawToken, detecting reuse (revoked-token replay)
// and enforcing the teacher's 10-second grace period for the benign
// race of two near-simultaneous refresh calls.
func (s *Service) Refresh(ctx context.Context, rawToken string, ip net.IP, userAgent string) (*LoginResult, error) {
	stored, err := s.refresh.Get(ctx, rawToken)
	if err != nil {
		return nil, ErrRefreshTokenNotFound
	}

	if stored.IsRevoked {
		if !stored.RevokedAt.IsZero() && time.Since(stored.RevokedAt) < gracePeriod {
			return nil, ErrConcurrentRefresh
		}
		_ = s.refresh.RevokeFamily(ctx, rawToken)
		s.logAudit(ctx, stored.UserID, audit.EventLoginFailed, stored.TenantID, map[string]string{"reason": "refresh_token_reuse", "family_id": stored.FamilyID.String()})
		return nil, ErrRefreshTokenReused
	}

	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	newRaw, err := GenerateRawToken()
	if err != nil {
		return nil, fmt.Errorf("authbff: generate refresh token: %w", err)
	}
	if err := s.refresh.Rotate(ctx, rawToken, newRaw, ip, userAgent); err != nil {
		return nil, fmt.Errorf("authbff: rotate refresh token: %w", err)
	}

	identity, err := s.identity.LoadIdentity(ctx, stored.TenantID, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("authbff: load identity: %w", err)
	}

	accessToken, ttl, err := s.issuer.IssueAccessToken(identity)
	if err != nil {
		return nil, fmt.Errorf("authbff: issue access token: %w", err)
	}

	return &LoginResult{
		AccessToken:    accessToken,
		AccessTokenTTL: ttl,
		RefreshToken:   newRaw,
		Identity:       identity,
	}, nil
}

// Logout revokes rawToken's entire family. Matches the teacher's
// "silence is golden" idempotence: logging out an already-revoked or
// unknown token is never an error from the caller's perspective.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	if stored, err := s.refresh.Get(ctx, rawToken); err == nil {
		s.logAudit(ctx, stored.UserID, audit.EventLogout, stored.TenantID, map[string]string{"method": "token_revocation"})
	}
	return s.refresh.RevokeFamily(ctx, rawToken)
}

// Me resolves the identity behind a verified access token, for
// GET /auth/me.
func (s *Service) Me(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := s.issuer.ParseAccessToken(accessToken)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	tenantID, err := tenant.NewID(claims.TenantID)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}
	return s.identity.LoadIdentity(ctx, tenantID, claims.Subject)
}

func (s *Service) logAudit(ctx context.Context, userID string, event audit.EventType, tenantID tenant.ID, metadata map[string]string) {
	if s.audit == nil {
		return
	}
	actorID, _ := uuid.Parse(userID)
	s.audit.Log(ctx, actorID, event, "tenant:"+tenantID.String(), metadata)
}
