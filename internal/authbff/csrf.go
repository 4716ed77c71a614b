package authbff

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/ldp-wms/tenant-core/internal/httpkit"
)

const csrfCookieName = "csrf_token"

var unsafeMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// CSRF implements the double-submit cookie pattern, adapted from the
// teacher's CSRFMiddleware: a random token is set as a JS-readable
// cookie, and every state-changing request must echo it back in the
// X-CSRF-Token header.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(csrfCookieName)
		var token string

		if err != nil || cookie.Value == "" {
			token, err = randomCSRFToken()
			if err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false,
				Secure:   true,
				SameSite: http.SameSiteStrictMode,
			})
		} else {
			token = cookie.Value
		}

		if unsafeMethods[r.Method] {
			header := r.Header.Get("X-CSRF-Token")
			if header == "" || !httpkit.SecureCompare(header, token) {
				http.Error(w, "csrf token mismatch", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func randomCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

