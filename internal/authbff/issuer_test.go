package authbff_test

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldp-wms/tenant-core/internal/authbff"
)

func TestIssuer_IssueAccessToken_CarriesTenantAndRoleClaims(t *testing.T) {
	issuer := testIssuer(t)
	identity := authbff.Identity{UserID: "user-1", TenantID: "acme", Roles: []string{"admin"}}

	tokenString, ttl, err := issuer.IssueAccessToken(identity)
	require.NoError(t, err)
	assert.Positive(t, ttl)

	parsed, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "acme", claims["tenant_id"])
	assert.Equal(t, "user-1", claims["sub"])
}

func TestIssuer_PreAuthToken_RoundTrip(t *testing.T) {
	issuer := testIssuer(t)

	token, err := issuer.IssuePreAuthToken("user-1")
	require.NoError(t, err)

	userID, err := issuer.ParsePreAuthToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestIssuer_ParsePreAuthToken_RejectsAccessToken(t *testing.T) {
	issuer := testIssuer(t)
	identity := authbff.Identity{UserID: "user-1", TenantID: "acme"}

	accessToken, _, err := issuer.IssueAccessToken(identity)
	require.NoError(t, err)

	_, err = issuer.ParsePreAuthToken(accessToken)
	assert.Error(t, err)
}
