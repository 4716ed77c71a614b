package authbff

import (
	"net/http"
	"time"
)

// RefreshCookieName and RefreshCookiePath are fixed by this system's
// login contract and must not drift from these exact values: a
// deliberate departure from the teacher's own refresh_token cookie,
// which used SameSite=None and a 7-day Max-Age.
const (
	RefreshCookieName = "refreshToken"
	RefreshCookiePath = "/auth"
	refreshCookieAge  = 24 * time.Hour
)

// SetRefreshCookie writes the refresh token as an HttpOnly, Secure,
// SameSite=Strict cookie scoped to /auth.
func SetRefreshCookie(w http.ResponseWriter, rawToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    rawToken,
		Path:     RefreshCookiePath,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(refreshCookieAge.Seconds()),
	})
}

// ClearRefreshCookie expires the cookie immediately on logout.
func ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// RefreshTokenFromRequest reads the cookie first, falling back to a
// JSON body field only when AUTH_ALLOW_BODY_REFRESH_FALLBACK permits
// it — a migration affordance for clients that predate the cookie
// contract. The fallback path is expected to log a deprecation warning
// at the call site, not here.
func RefreshTokenFromRequest(r *http.Request, allowBodyFallback bool, bodyToken string) (string, bool) {
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return c.Value, false
	}
	if allowBodyFallback && bodyToken != "" {
		return bodyToken, true
	}
	return "", false
}
