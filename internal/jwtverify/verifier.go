package jwtverify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshInterval bounds how stale the cached key set is allowed to
// get: the cache refreshes on a ticker at most every 15 minutes.
const refreshInterval = 15 * time.Minute

// allowedAlgs is the signature-algorithm allow-list. Tokens signed with
// anything outside this set (including "none") are rejected before a
// key lookup is even attempted.
var allowedAlgs = map[string]bool{
	jwt.SigningMethodRS256.Alg(): true,
	jwt.SigningMethodRS384.Alg(): true,
	jwt.SigningMethodRS512.Alg(): true,
	jwt.SigningMethodES256.Alg(): true,
	jwt.SigningMethodES384.Alg(): true,
	jwt.SigningMethodES512.Alg(): true,
}

// Verifier validates access tokens against a remote issuer's JWKS
// endpoint, generalizing the teacher's single static RSA key into a
// rotating, cached key set.
type Verifier struct {
	issuer     string
	jwksURL    string
	httpClient *http.Client

	keys atomic.Pointer[JWKS]

	refreshMu sync.Mutex
	lastFetch time.Time
}

// NewVerifier constructs a Verifier for the given issuer. jwksURL
// defaults to "{issuer}/.well-known/jwks.json" when empty.
func NewVerifier(issuer, jwksURL string, httpClient *http.Client) *Verifier {
	if jwksURL == "" {
		jwksURL = issuer + "/.well-known/jwks.json"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{
		issuer:     issuer,
		jwksURL:    jwksURL,
		httpClient: httpClient,
	}
}

// Start runs a background refresh loop until ctx is canceled. Callers
// should invoke Start once per process; Verify itself triggers an
// out-of-band refresh on a key-not-found cache miss, so Start only
// needs to keep the steady-state cache warm.
func (v *Verifier) Start(ctx context.Context) {
	if err := v.WarmCache(ctx); err != nil {
		// Best-effort warm-up; first Verify call will retry.
		_ = err
	}

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = v.refresh(ctx)
		}
	}
}

// WarmCache performs a synchronous fetch of the key set. Callers
// typically call this once at startup before serving traffic, then
// rely on Start for steady-state refresh.
func (v *Verifier) WarmCache(ctx context.Context) error {
	return v.refresh(ctx)
}

// refresh fetches the current key set and swaps it in atomically.
// Concurrent callers are serialized by refreshMu, so only one fetch
// runs at a time; each caller still performs its own fetch in turn.
func (v *Verifier) refresh(ctx context.Context) error {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var set JWKS
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	v.keys.Store(&set)
	v.lastFetch = time.Now()
	return nil
}

// keyFor resolves a kid to a public key, forcing one synchronous
// refresh on a cache miss before giving up. This lets a freshly
// rotated signing key work immediately instead of waiting out the
// ticker interval.
func (v *Verifier) keyFor(ctx context.Context, kid string) (interface{}, error) {
	set := v.keys.Load()
	if set != nil {
		if jwk, ok := set.byKid(kid); ok {
			return jwk.publicKey()
		}
	}

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	set = v.keys.Load()
	if set == nil {
		return nil, ErrKeyNotFound
	}
	jwk, ok := set.byKid(kid)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return jwk.publicKey()
}

// Verify parses and validates tokenString, returning its claims on
// success. Errors are always one of the sentinels in errors.go.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		alg, _ := t.Header["alg"].(string)
		if !allowedAlgs[alg] {
			return nil, fmt.Errorf("%w: disallowed algorithm %q", ErrInvalidSignature, alg)
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: token header has no kid", ErrMalformedToken)
		}
		return v.keyFor(ctx, kid)
	})

	if err != nil {
		return nil, classifyParseError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}

	// tenant_id is deliberately NOT checked here: a validly-signed token
	// missing its tenant claim is not a signature/expiry failure (401),
	// it is the caller's job (gateway step 3) to reject that as 403.
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingRequiredClaim)
	}

	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrInvalidIssuer
	case errors.Is(err, ErrMalformedToken), errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrKeyNotFound), errors.Is(err, ErrJWKSFetchFailed):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
}
