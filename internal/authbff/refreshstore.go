package authbff

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// RefreshTokenTTL is the long-lived refresh token lifetime, roughly
// a day.
const RefreshTokenTTL = 24 * time.Hour

// gracePeriod absorbs the race of two concurrent refresh calls for
// the same (now-rotated) token — adapted from the teacher's Phase-35
// grace-period check in session_service.go.
const gracePeriod = 10 * time.Second

var (
	ErrRefreshTokenNotFound = errors.New("authbff: refresh token not found")
	ErrRefreshTokenExpired  = errors.New("authbff: refresh token expired")
	ErrRefreshTokenReused   = errors.New("authbff: refresh token reuse detected")
	ErrConcurrentRefresh    = errors.New("authbff: concurrent refresh request")
)

// StoredToken is a single refresh-token row as the store sees it.
type StoredToken struct {
	UserID    string
	TenantID  tenant.ID
	FamilyID  uuid.UUID
	IsRevoked bool
	RevokedAt time.Time
	ExpiresAt time.Time
}

// RefreshStore persists the refresh-token family rotation chain.
// Adapted from the teacher's sqlc queries (CreateRefreshToken,
// RotateRefreshToken, RevokeTokenFamily, GetRefreshToken) behind an
// interface, since this tree has no generated sqlc package.
type RefreshStore interface {
	// Create starts a new family for a freshly authenticated user.
	Create(ctx context.Context, userID string, tenantID tenant.ID, rawToken string, ip net.IP, userAgent string) error
	// Get looks up a token by its raw (unhashed) value.
	Get(ctx context.Context, rawToken string) (StoredToken, error)
	// Rotate marks oldRawToken revoked and inserts newRawToken as its
	// child in the same family, atomically.
	Rotate(ctx context.Context, oldRawToken, newRawToken string, ip net.IP, userAgent string) error
	// RevokeFamily revokes every token in rawToken's family — the
	// reuse-detected "nuclear option".
	RevokeFamily(ctx context.Context, rawToken string) error
}

// HashToken returns the deterministic lookup key for a raw token.
// Tokens are never stored in plaintext.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// GenerateRawToken returns a fresh high-entropy opaque token.
func GenerateRawToken() (string, error) {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
