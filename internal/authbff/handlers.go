package authbff

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ldp-wms/tenant-core/internal/httpkit"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// Handlers exposes the BFF's HTTP surface: login, MFA completion,
// refresh, logout, and identity lookup. Adapted from the teacher's
// AuthHandler, with the cookie shape replaced to match this system's
// refresh-token contract.
type Handlers struct {
	svc               *Service
	allowBodyFallback bool
}

func NewHandlers(svc *Service, allowBodyRefreshFallback bool) *Handlers {
	return &Handlers{svc: svc, allowBodyFallback: allowBodyRefreshFallback}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string      `json:"accessToken"`
	ExpiresIn    int         `json:"expiresIn"`
	UserContext  userContext `json:"userContext"`
	MFARequired  bool        `json:"mfaRequired,omitempty"`
	PreAuthToken string      `json:"preAuthToken,omitempty"`
}

// userContext is what the frontend needs to render without a second
// round trip: who the caller is, which tenant, and what they can do.
type userContext struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	TenantID string   `json:"tenant"`
	Roles    []string `json:"roles"`
}

func toUserContext(identity Identity) userContext {
	return userContext{
		ID:       identity.UserID,
		Email:    identity.Email,
		TenantID: identity.TenantID.String(),
		Roles:    identity.Roles,
	}
}

// Login handles POST /auth/login. tenantID is read directly from the
// client's tenant-id header; no interceptor runs in this service, and
// the gateway forwards /auth/login as a public path without injecting
// headers.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenantID := tenant.ID(r.Header.Get("tenant-id"))
	if tenantID == "" {
		httpkit.RespondError(w, http.StatusBadRequest, "tenant required")
		return
	}

	ip := httpkit.ClientIP(r)
	result, err := h.svc.Login(r.Context(), tenantID, req.Username, req.Password, ip, r.UserAgent())
	if err != nil {
		slog.Warn("authbff_login_failed", "tenant_id", tenantID.String())
		httpkit.RespondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if result.MFARequired {
		httpkit.RespondJSON(w, http.StatusOK, loginResponse{MFARequired: true, PreAuthToken: result.PreAuthToken})
		return
	}

	SetRefreshCookie(w, result.RefreshToken)
	httpkit.RespondJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   int(result.AccessTokenTTL.Seconds()),
		UserContext: toUserContext(result.Identity),
	})
}

type mfaRequest struct {
	PreAuthToken string `json:"preAuthToken"`
	Code         string `json:"code"`
}

// CompleteMFA handles POST /auth/mfa.
func (h *Handlers) CompleteMFA(w http.ResponseWriter, r *http.Request) {
	var req mfaRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.CompleteMFA(r.Context(), req.PreAuthToken, req.Code, httpkit.ClientIP(r), r.UserAgent())
	if err != nil {
		httpkit.RespondError(w, http.StatusUnauthorized, "invalid mfa code")
		return
	}

	SetRefreshCookie(w, result.RefreshToken)
	httpkit.RespondJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   int(result.AccessTokenTTL.Seconds()),
		UserContext: toUserContext(result.Identity),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Refresh handles POST /auth/refresh. Reads the cookie primarily;
// AUTH_ALLOW_BODY_REFRESH_FALLBACK permits a body field during client
// migration, logging a deprecation warning whenever that path is used.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = httpkit.DecodeJSON(r, &req) // body is optional on this endpoint

	rawToken, usedFallback := RefreshTokenFromRequest(r, h.allowBodyFallback, req.RefreshToken)
	if rawToken == "" {
		httpkit.RespondError(w, http.StatusUnauthorized, "no session")
		return
	}
	if usedFallback {
		slog.Warn("authbff_refresh_body_fallback_used", "path", r.URL.Path)
	}

	result, err := h.svc.Refresh(r.Context(), rawToken, httpkit.ClientIP(r), r.UserAgent())
	if err != nil {
		ClearRefreshCookie(w)
		if errors.Is(err, ErrRefreshTokenReused) {
			slog.Error("authbff_refresh_token_reuse_detected")
		}
		httpkit.RespondError(w, http.StatusUnauthorized, "refresh failed")
		return
	}

	SetRefreshCookie(w, result.RefreshToken)
	httpkit.RespondJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   int(result.AccessTokenTTL.Seconds()),
		UserContext: toUserContext(result.Identity),
	})
}

// Me handles GET /auth/me. Requires a bearer access token; verifies it
// locally and returns the identity re-read through the IdentityProvider
// for the token's tenant and subject, without any password check.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httpkit.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	identity, err := h.svc.Me(r.Context(), token)
	if err != nil {
		httpkit.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	httpkit.RespondJSON(w, http.StatusOK, toUserContext(identity))
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	prefix, token, found := strings.Cut(header, " ")
	if !found || prefix != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// Logout handles POST /auth/logout. Always returns 204: logging out
// twice, or logging out a session that was never valid, is not an
// error from the caller's point of view.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	rawToken, _ := RefreshTokenFromRequest(r, h.allowBodyFallback, "")
	_ = h.svc.Logout(r.Context(), rawToken)
	ClearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
