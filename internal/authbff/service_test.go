package authbff_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldp-wms/tenant-core/internal/authbff"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// memoryIdentityProvider is a deterministic test double for
// authbff.IdentityProvider, standing in for the pgx-backed default.
type memoryIdentityProvider struct {
	password string
	identity authbff.Identity
	mfa      string // non-empty enables MFA
	mfaCode  string
}

func (p *memoryIdentityProvider) Authenticate(ctx context.Context, tenantID tenant.ID, username, password string) (authbff.Identity, string, error) {
	if username != p.identity.Email || password != p.password || tenantID != p.identity.TenantID {
		return authbff.Identity{}, "", authbff.ErrInvalidCredentials
	}
	if p.mfa != "" {
		return authbff.Identity{}, "pre-auth-token", authbff.ErrMFARequired
	}
	return p.identity, "", nil
}

func (p *memoryIdentityProvider) VerifyMFA(ctx context.Context, preAuthToken, code string) (authbff.Identity, error) {
	if preAuthToken != "pre-auth-token" || code != p.mfaCode {
		return authbff.Identity{}, authbff.ErrInvalidMFACode
	}
	return p.identity, nil
}

func (p *memoryIdentityProvider) LoadIdentity(ctx context.Context, tenantID tenant.ID, userID string) (authbff.Identity, error) {
	if userID != p.identity.UserID {
		return authbff.Identity{}, authbff.ErrInvalidCredentials
	}
	return p.identity, nil
}

// memoryRefreshStore is an in-process stand-in for PgxRefreshStore.
type memoryRefreshStore struct {
	mu    sync.Mutex
	byRaw map[string]*authbff.StoredToken
}

func newMemoryRefreshStore() *memoryRefreshStore {
	return &memoryRefreshStore{byRaw: make(map[string]*authbff.StoredToken)}
}

func (s *memoryRefreshStore) Create(ctx context.Context, userID string, tenantID tenant.ID, rawToken string, ip net.IP, ua string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRaw[rawToken] = &authbff.StoredToken{
		UserID:    userID,
		TenantID:  tenantID,
		ExpiresAt: time.Now().Add(authbff.RefreshTokenTTL),
	}
	return nil
}

func (s *memoryRefreshStore) Get(ctx context.Context, rawToken string) (authbff.StoredToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.byRaw[rawToken]
	if !ok {
		return authbff.StoredToken{}, authbff.ErrRefreshTokenNotFound
	}
	return *st, nil
}

func (s *memoryRefreshStore) Rotate(ctx context.Context, oldRaw, newRaw string, ip net.IP, ua string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byRaw[oldRaw]
	if !ok {
		return authbff.ErrRefreshTokenNotFound
	}
	old.IsRevoked = true
	old.RevokedAt = time.Now()
	s.byRaw[newRaw] = &authbff.StoredToken{
		UserID:    old.UserID,
		TenantID:  old.TenantID,
		FamilyID:  old.FamilyID,
		ExpiresAt: time.Now().Add(authbff.RefreshTokenTTL),
	}
	return nil
}

func (s *memoryRefreshStore) RevokeFamily(ctx context.Context, rawToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.byRaw[rawToken]; ok {
		st.IsRevoked = true
		st.RevokedAt = time.Now()
	}
	return nil
}

func testIssuer(t *testing.T) *authbff.Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der := x509.MarshalPKCS1PrivateKey(key)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})
	issuer, err := authbff.NewIssuer(string(pemBytes), "kid-1", "https://authbff.example.test")
	require.NoError(t, err)
	return issuer
}

func TestService_Login_Success(t *testing.T) {
	identity := authbff.Identity{UserID: "user-1", TenantID: "acme", Email: "alice@acme.test", Roles: []string{"admin"}}
	idp := &memoryIdentityProvider{password: "correcthorse", identity: identity}
	store := newMemoryRefreshStore()
	svc := authbff.NewService(idp, testIssuer(t), store, nil)

	result, err := svc.Login(context.Background(), "acme", "alice@acme.test", "correcthorse", net.ParseIP("127.0.0.1"), "test-agent")
	require.NoError(t, err)
	assert.False(t, result.MFARequired)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
}

func TestService_Login_WrongPassword(t *testing.T) {
	identity := authbff.Identity{UserID: "user-1", TenantID: "acme", Email: "alice@acme.test"}
	idp := &memoryIdentityProvider{password: "correcthorse", identity: identity}
	svc := authbff.NewService(idp, testIssuer(t), newMemoryRefreshStore(), nil)

	_, err := svc.Login(context.Background(), "acme", "alice@acme.test", "wrong", nil, "")
	assert.ErrorIs(t, err, authbff.ErrInvalidCredentials)
}

func TestService_Login_MissingTenant(t *testing.T) {
	idp := &memoryIdentityProvider{}
	svc := authbff.NewService(idp, testIssuer(t), newMemoryRefreshStore(), nil)

	_, err := svc.Login(context.Background(), "", "alice", "pw", nil, "")
	assert.ErrorIs(t, err, authbff.ErrTenantRequired)
}

func TestService_Login_MFARequired_ThenComplete(t *testing.T) {
	identity := authbff.Identity{UserID: "user-1", TenantID: "acme", Email: "alice@acme.test"}
	idp := &memoryIdentityProvider{password: "correcthorse", identity: identity, mfa: "enabled", mfaCode: "123456"}
	svc := authbff.NewService(idp, testIssuer(t), newMemoryRefreshStore(), nil)

	result, err := svc.Login(context.Background(), "acme", "alice@acme.test", "correcthorse", nil, "")
	require.NoError(t, err)
	assert.True(t, result.MFARequired)
	assert.Empty(t, result.AccessToken)
	require.NotEmpty(t, result.PreAuthToken)

	final, err := svc.CompleteMFA(context.Background(), result.PreAuthToken, "123456", nil, "")
	require.NoError(t, err)
	assert.NotEmpty(t, final.AccessToken)
	assert.NotEmpty(t, final.RefreshToken)
}

func TestService_Refresh_RotatesToken(t *testing.T) {
	identity := authbff.Identity{UserID: "user-1", TenantID: "acme", Email: "alice@acme.test"}
	idp := &memoryIdentityProvider{password: "correcthorse", identity: identity}
	store := newMemoryRefreshStore()
	svc := authbff.NewService(idp, testIssuer(t), store, nil)

	login, err := svc.Login(context.Background(), "acme", "alice@acme.test", "correcthorse", nil, "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken, nil, "")
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestService_Refresh_ReuseDetected_RevokesFamily(t *testing.T) {
	identity := authbff.Identity{UserID: "user-1", TenantID: "acme", Email: "alice@acme.test"}
	idp := &memoryIdentityProvider{password: "correcthorse", identity: identity}
	store := newMemoryRefreshStore()
	svc := authbff.NewService(idp, testIssuer(t), store, nil)

	login, err := svc.Login(context.Background(), "acme", "alice@acme.test", "correcthorse", nil, "")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), login.RefreshToken, nil, "")
	require.NoError(t, err)

	// Force past the grace period so a replay of the now-revoked token
	// is treated as reuse rather than a benign concurrent race.
	store.mu.Lock()
	store.byRaw[login.RefreshToken].RevokedAt = time.Now().Add(-time.Minute)
	store.mu.Unlock()

	_, err = svc.Refresh(context.Background(), login.RefreshToken, nil, "")
	assert.ErrorIs(t, err, authbff.ErrRefreshTokenReused)
}

func TestService_Refresh_WithinGracePeriod_ReturnsConcurrent(t *testing.T) {
	identity := authbff.Identity{UserID: "user-1", TenantID: "acme", Email: "alice@acme.test"}
	idp := &memoryIdentityProvider{password: "correcthorse", identity: identity}
	store := newMemoryRefreshStore()
	svc := authbff.NewService(idp, testIssuer(t), store, nil)

	login, err := svc.Login(context.Background(), "acme", "alice@acme.test", "correcthorse", nil, "")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), login.RefreshToken, nil, "")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), login.RefreshToken, nil, "")
	assert.ErrorIs(t, err, authbff.ErrConcurrentRefresh)
}

func TestService_Logout_IsIdempotent(t *testing.T) {
	idp := &memoryIdentityProvider{}
	svc := authbff.NewService(idp, testIssuer(t), newMemoryRefreshStore(), nil)

	assert.NoError(t, svc.Logout(context.Background(), ""))
	assert.NoError(t, svc.Logout(context.Background(), "never-issued"))
}
