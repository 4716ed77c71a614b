package authbff_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldp-wms/tenant-core/internal/authbff"
)

func TestSetRefreshCookie_MatchesExactContract(t *testing.T) {
	rec := httptest.NewRecorder()
	authbff.SetRefreshCookie(rec, "opaque-token-value")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]

	assert.Equal(t, authbff.RefreshCookieName, c.Name)
	assert.Equal(t, "opaque-token-value", c.Value)
	assert.Equal(t, "/auth", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 86400, c.MaxAge)
}

func TestClearRefreshCookie_ExpiresImmediately(t *testing.T) {
	rec := httptest.NewRecorder()
	authbff.ClearRefreshCookie(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestRefreshTokenFromRequest_PrefersCookieOverBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	r.AddCookie(&http.Cookie{Name: authbff.RefreshCookieName, Value: "from-cookie"})

	token, usedFallback := authbff.RefreshTokenFromRequest(r, true, "from-body")
	assert.Equal(t, "from-cookie", token)
	assert.False(t, usedFallback)
}

func TestRefreshTokenFromRequest_FallsBackToBodyWhenAllowed(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)

	token, usedFallback := authbff.RefreshTokenFromRequest(r, true, "from-body")
	assert.Equal(t, "from-body", token)
	assert.True(t, usedFallback)
}

func TestRefreshTokenFromRequest_RejectsBodyWhenFallbackDisabled(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)

	token, _ := authbff.RefreshTokenFromRequest(r, false, "from-body")
	assert.Empty(t, token)
}
