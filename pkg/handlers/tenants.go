package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/auth"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/services"
)

// TenantsHandler handles tenant provisioning endpoints.
type TenantsHandler struct {
	tenants services.TenantService
	logger  *zap.Logger
}

// NewTenantsHandler creates a new tenants handler.
func NewTenantsHandler(tenants services.TenantService, logger *zap.Logger) *TenantsHandler {
	return &TenantsHandler{tenants: tenants, logger: logger}
}

// RegisterRoutes registers the tenant routes on the given mux.
func (h *TenantsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/tenants", authMiddleware.RequireCaller(h.Provision))
	mux.HandleFunc("GET /api/tenants", authMiddleware.RequireCaller(h.List))
	mux.HandleFunc("GET /api/tenants/{id}", authMiddleware.RequireCaller(h.Get))
	mux.HandleFunc("DELETE /api/tenants/{id}", authMiddleware.RequireCaller(h.Deactivate))
}

// Provision handles POST /api/tenants.
func (h *TenantsHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var tenant models.Tenant
	if !decodeBody(w, r, &tenant) {
		return
	}
	if err := h.tenants.Provision(r.Context(), &tenant); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, tenant)
}

// List handles GET /api/tenants.
func (h *TenantsHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenants.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

// Get handles GET /api/tenants/{id}.
func (h *TenantsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tenant, err := h.tenants.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, tenant)
}

// Deactivate handles DELETE /api/tenants/{id}. Tenants deactivate rather
// than delete; their data stays queryable by admins.
func (h *TenantsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.tenants.Deactivate(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
