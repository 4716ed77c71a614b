package orchestrator

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ldp-wms/tenant-core/internal/httpkit"
	"github.com/ldp-wms/tenant-core/internal/tenant"
)

// Handlers exposes tenant CRUD and the four lifecycle transition
// endpoints over HTTP, adapted from the teacher's tenant admin
// handlers but re-pointed at Service's state-machine-aware API.
type Handlers struct {
	svc *Service
}

func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// Routes mounts the orchestrator's surface on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/tenants", h.Create)
	r.Get("/tenants/{tenantID}", h.Get)
	r.Put("/tenants/{tenantID}", h.Update)
	r.Delete("/tenants/{tenantID}", h.Delete)
	r.Get("/tenants/{tenantID}/realm", h.GetRealm)
	r.Post("/tenants/{tenantID}/activate", h.Activate)
	r.Post("/tenants/{tenantID}/suspend", h.Suspend)
	r.Post("/tenants/{tenantID}/deactivate", h.Deactivate)
	r.Post("/tenants/{tenantID}/reactivate", h.Reactivate)
}

type createTenantRequest struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ContactEmail string            `json:"contactEmail"`
	Config       map[string]string `json:"config"`
}

// Create handles POST /tenants. The new tenant starts PENDING; schema
// provisioning happens asynchronously off the TenantCreated event
// (component J), never inline in this request.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := tenant.NewID(req.ID)
	if err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	rec, err := h.svc.Create(r.Context(), id, req.Name, req.ContactEmail, req.Config)
	if err != nil {
		if errors.Is(err, ErrTenantAlreadyExists) {
			httpkit.RespondError(w, http.StatusConflict, "tenant already exists")
			return
		}
		httpkit.RespondError(w, http.StatusInternalServerError, "failed to create tenant")
		return
	}

	httpkit.RespondJSON(w, http.StatusCreated, rec)
}

// Get handles GET /tenants/{tenantID}. The response body is the raw
// tenant.Record — the shape tenantauthority.Client decodes directly
// on its cache-miss path (component D) — rather than an API-specific
// DTO, so the two stay in lockstep without a second schema to drift.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupTenant(w, r)
	if !ok {
		return
	}
	httpkit.RespondJSON(w, http.StatusOK, rec)
}

type updateTenantRequest struct {
	Name         string            `json:"name"`
	ContactEmail string            `json:"contactEmail"`
	Config       map[string]string `json:"config"`
}

// Update handles PUT /tenants/{tenantID}. Only name, contact email,
// and config move through this path; status only ever changes through
// the lifecycle verbs below.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id, err := tenant.NewID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	var req updateTenantRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.svc.Update(r.Context(), id, req.Name, req.ContactEmail, req.Config)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			httpkit.RespondError(w, http.StatusNotFound, "tenant not found")
			return
		}
		httpkit.RespondError(w, http.StatusInternalServerError, "failed to update tenant")
		return
	}

	httpkit.RespondJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /tenants/{tenantID}.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := tenant.NewID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrTenantNotFound):
			httpkit.RespondError(w, http.StatusNotFound, "tenant not found")
		case errors.Is(err, ErrTenantHasDependents):
			httpkit.RespondError(w, http.StatusConflict, "tenant has dependent rows")
		default:
			httpkit.RespondError(w, http.StatusInternalServerError, "failed to delete tenant")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type realmResponse struct {
	TenantID string `json:"tenantId"`
	Realm    string `json:"realm"`
	Status   string `json:"status"`
}

// GetRealm handles GET /tenants/{tenantID}/realm, a minimal view of the
// tenant's effective realm and status. The tenant authority client does
// not call it; it derives the realm from GET /tenants/{tenantID}.
func (h *Handlers) GetRealm(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.lookupTenant(w, r)
	if !ok {
		return
	}
	httpkit.RespondJSON(w, http.StatusOK, realmResponse{
		TenantID: rec.ID.String(),
		Realm:    rec.Realm(),
		Status:   string(rec.Status),
	})
}

func (h *Handlers) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, tenant.StatusActive)
}

func (h *Handlers) Suspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, tenant.StatusSuspended)
}

func (h *Handlers) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, tenant.StatusInactive)
}

func (h *Handlers) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, tenant.StatusActive)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, to tenant.Status) {
	id, err := tenant.NewID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}

	rec, err := h.svc.Transition(r.Context(), id, to)
	if err != nil {
		switch {
		case errors.Is(err, ErrTenantNotFound):
			httpkit.RespondError(w, http.StatusNotFound, "tenant not found")
		case errors.Is(err, ErrInvalidTransition):
			httpkit.RespondError(w, http.StatusConflict, "invalid lifecycle transition")
		default:
			httpkit.RespondError(w, http.StatusInternalServerError, "failed to transition tenant")
		}
		return
	}

	httpkit.RespondJSON(w, http.StatusOK, rec)
}

func (h *Handlers) lookupTenant(w http.ResponseWriter, r *http.Request) (tenant.Record, bool) {
	id, err := tenant.NewID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httpkit.RespondError(w, http.StatusBadRequest, "invalid tenant id")
		return tenant.Record{}, false
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			httpkit.RespondError(w, http.StatusNotFound, "tenant not found")
			return tenant.Record{}, false
		}
		httpkit.RespondError(w, http.StatusInternalServerError, "failed to load tenant")
		return tenant.Record{}, false
	}
	return rec, true
}
