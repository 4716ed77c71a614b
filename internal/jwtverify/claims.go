// Package jwtverify implements the JWT verifier component: remote-JWKS
// signature verification with automatic key rotation.
package jwtverify

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the custom claim set every access token carries.
type Claims struct {
	Subject  string   `json:"sub"`
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}
