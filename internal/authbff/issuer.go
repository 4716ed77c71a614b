package authbff

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ldp-wms/tenant-core/internal/jwtverify"
)

const (
	accessTokenTTL = 15 * time.Minute
	preAuthTTL     = 2 * time.Minute
)

// Issuer mints access and pre-auth tokens, adapted from the teacher's
// JWTProvider.GenerateAccessToken/GeneratePreAuthToken. Verification
// of these same tokens downstream is 4.C's Verifier, fetching this
// issuer's public key over JWKS rather than sharing the key directly.
type Issuer struct {
	privateKey *rsa.PrivateKey
	kid        string
	issuerURL  string
}

// NewIssuer parses an RSA private key in PEM (PKCS1 or PKCS8).
func NewIssuer(privateKeyPEM, kid, issuerURL string) (*Issuer, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("authbff: failed to decode PEM block containing private key")
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		parsed, err2 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err2 != nil {
			return nil, fmt.Errorf("authbff: parse private key: pkcs1: %w, pkcs8: %w", err, err2)
		}
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("authbff: key is not an RSA private key")
		}
		key = rsaKey
	}

	return &Issuer{privateKey: key, kid: kid, issuerURL: issuerURL}, nil
}

// IssueAccessToken signs a short-lived access token carrying the
// tenant and role claims the gateway's verifier requires.
func (iss *Issuer) IssueAccessToken(identity Identity) (string, time.Duration, error) {
	now := time.Now()
	claims := jwtverify.Claims{
		Subject:  identity.UserID,
		TenantID: identity.TenantID.String(),
		Roles:    identity.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    iss.issuerURL,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)), // tolerate clock skew
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = iss.kid
	signed, err := token.SignedString(iss.privateKey)
	if err != nil {
		return "", 0, fmt.Errorf("authbff: sign access token: %w", err)
	}
	return signed, accessTokenTTL, nil
}

// preAuthClaims is the intentionally minimal claim set for the MFA
// step-up token: no tenant, no roles, just "who" and a narrow scope.
type preAuthClaims struct {
	Subject string `json:"sub"`
	Scope   string `json:"scope"`
	jwt.RegisteredClaims
}

// IssuePreAuthToken signs a short-lived token identifying a user who
// passed password verification but still owes an MFA code.
func (iss *Issuer) IssuePreAuthToken(userID string) (string, error) {
	now := time.Now()
	claims := preAuthClaims{
		Subject: userID,
		Scope:   "pre_auth",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    iss.issuerURL,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(preAuthTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = iss.kid
	signed, err := token.SignedString(iss.privateKey)
	if err != nil {
		return "", fmt.Errorf("authbff: sign pre-auth token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies an access token against this issuer's own
// public key. The BFF that signed a token can always verify it locally;
// this backs GET /auth/me without a JWKS round trip to itself.
func (iss *Issuer) ParseAccessToken(tokenString string) (*jwtverify.Claims, error) {
	claims := &jwtverify.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return &iss.privateKey.PublicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("authbff: invalid access token: %w", err)
	}
	if !token.Valid || claims.TenantID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("authbff: access token missing required claims")
	}
	return claims, nil
}

// ParsePreAuthToken verifies a pre-auth token against this issuer's
// own public key (pre-auth tokens never leave this service, so there
// is no JWKS round trip).
func (iss *Issuer) ParsePreAuthToken(tokenString string) (string, error) {
	claims := &preAuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return &iss.privateKey.PublicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("authbff: invalid pre-auth token: %w", err)
	}
	if !token.Valid || claims.Scope != "pre_auth" {
		return "", fmt.Errorf("authbff: pre-auth token invalid or wrong scope")
	}
	return claims.Subject, nil
}
