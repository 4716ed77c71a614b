package jwtverify_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ldp-wms/tenant-core/internal/jwtverify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://auth.example.test"
const testKid = "sig-test-1"

func newTestKeyPair(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func jwksHandlerForKeys(t *testing.T, keys map[string]*rsa.PrivateKey) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		set := jwtverify.JWKS{}
		for kid, key := range keys {
			n := base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes())
			e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes())
			set.Keys = append(set.Keys, jwtverify.JWK{
				Kty: "RSA",
				Kid: kid,
				Use: "sig",
				Alg: "RS256",
				N:   n,
				E:   e,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(set))
	}
}

func jwksHandler(t *testing.T, key *rsa.PrivateKey) http.HandlerFunc {
	t.Helper()
	return jwksHandlerForKeys(t, map[string]*rsa.PrivateKey{testKid: key})
}

func signTokenWithKid(t *testing.T, key *rsa.PrivateKey, kid string, mutate func(*jwtverify.Claims)) string {
	t.Helper()
	claims := jwtverify.Claims{
		Subject:  "user-1",
		TenantID: "acme",
		Roles:    []string{"operator"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if mutate != nil {
		mutate(&claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func signToken(t *testing.T, key *rsa.PrivateKey, mutate func(*jwtverify.Claims)) string {
	t.Helper()
	return signTokenWithKid(t, key, testKid, mutate)
}

func TestVerifier_Verify_ValidToken(t *testing.T) {
	key := newTestKeyPair(t)
	srv := httptest.NewServer(jwksHandler(t, key))
	defer srv.Close()

	v := jwtverify.NewVerifier(testIssuer, srv.URL, nil)
	tokenString := signToken(t, key, nil)

	claims, err := v.Verify(context.Background(), tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "acme", claims.TenantID)
	assert.Equal(t, []string{"operator"}, claims.Roles)
}

func TestVerifier_Verify_ExpiredToken(t *testing.T) {
	key := newTestKeyPair(t)
	srv := httptest.NewServer(jwksHandler(t, key))
	defer srv.Close()

	v := jwtverify.NewVerifier(testIssuer, srv.URL, nil)
	tokenString := signToken(t, key, func(c *jwtverify.Claims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	})

	_, err := v.Verify(context.Background(), tokenString)
	assert.ErrorIs(t, err, jwtverify.ErrExpiredToken)
}

func TestVerifier_Verify_WrongIssuer(t *testing.T) {
	key := newTestKeyPair(t)
	srv := httptest.NewServer(jwksHandler(t, key))
	defer srv.Close()

	v := jwtverify.NewVerifier(testIssuer, srv.URL, nil)
	tokenString := signToken(t, key, func(c *jwtverify.Claims) {
		c.Issuer = "https://not-the-issuer.example"
	})

	_, err := v.Verify(context.Background(), tokenString)
	assert.ErrorIs(t, err, jwtverify.ErrInvalidIssuer)
}

func TestVerifier_Verify_MissingTenantClaim(t *testing.T) {
	// A missing tenant_id is not a verification failure: the token's
	// signature and expiry are still valid, so Verify succeeds and
	// hands the caller claims with a blank TenantID. Rejecting absent
	// tenant claims with 403 is the gateway's job (step 3), not the
	// verifier's (step 2).
	key := newTestKeyPair(t)
	srv := httptest.NewServer(jwksHandler(t, key))
	defer srv.Close()

	v := jwtverify.NewVerifier(testIssuer, srv.URL, nil)
	tokenString := signToken(t, key, func(c *jwtverify.Claims) {
		c.TenantID = ""
	})

	claims, err := v.Verify(context.Background(), tokenString)
	require.NoError(t, err)
	assert.Empty(t, claims.TenantID)
}

func TestVerifier_Verify_UnknownKid(t *testing.T) {
	key := newTestKeyPair(t)
	srv := httptest.NewServer(jwksHandler(t, key))
	defer srv.Close()

	v := jwtverify.NewVerifier(testIssuer, srv.URL, nil)

	claims := jwtverify.Claims{
		Subject:  "user-1",
		TenantID: "acme",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "some-other-kid"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, jwtverify.ErrKeyNotFound)
}

func TestVerifier_Verify_DisallowedAlgorithm(t *testing.T) {
	srv := httptest.NewServer(jwksHandler(t, newTestKeyPair(t)))
	defer srv.Close()

	v := jwtverify.NewVerifier(testIssuer, srv.URL, nil)

	claims := jwtverify.Claims{
		Subject:  "user-1",
		TenantID: "acme",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, jwtverify.ErrInvalidSignature)
}

func TestVerifier_Verify_KeyRotation_RefreshesOnMiss(t *testing.T) {
	key1 := newTestKeyPair(t)
	key2 := newTestKeyPair(t)
	published := map[string]*rsa.PrivateKey{"sig-1": key1}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jwksHandlerForKeys(t, published)(w, r)
	}))
	defer srv.Close()

	v := jwtverify.NewVerifier(testIssuer, srv.URL, nil)
	require.NoError(t, v.WarmCache(context.Background()))

	// Rotate: a new key appears under a new kid, server-side, without
	// the verifier being told directly. The next Verify call for a
	// token signed under the new kid must trigger a cache-miss refresh
	// rather than failing outright.
	published["sig-2"] = key2
	tokenString := signTokenWithKid(t, key2, "sig-2", nil)

	claims, err := v.Verify(context.Background(), tokenString)
	require.NoError(t, err)
	assert.Equal(t, "acme", claims.TenantID)
}
