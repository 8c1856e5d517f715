package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/auth"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/services"
)

// HoldRequest is the request body for placing a work order on hold.
type HoldRequest struct {
	Reason string `json:"reason"`
}

// DeliverRequest is the request body for recording a delivery.
type DeliverRequest struct {
	DeliveredAt time.Time `json:"delivered_at"`
	QtyShipped  int64     `json:"qty_shipped"`
}

// WorkOrdersHandler handles work order lifecycle endpoints.
type WorkOrdersHandler struct {
	orders services.WorkOrderService
	logger *zap.Logger
}

// NewWorkOrdersHandler creates a new work orders handler.
func NewWorkOrdersHandler(orders services.WorkOrderService, logger *zap.Logger) *WorkOrdersHandler {
	return &WorkOrdersHandler{orders: orders, logger: logger}
}

// RegisterRoutes registers the work order routes on the given mux.
func (h *WorkOrdersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/workorders", authMiddleware.RequireCaller(h.Create))
	mux.HandleFunc("GET /api/workorders", authMiddleware.RequireCaller(h.List))
	mux.HandleFunc("GET /api/workorders/wip", authMiddleware.RequireCaller(h.WIP))
	mux.HandleFunc("GET /api/workorders/{id}", authMiddleware.RequireCaller(h.Get))
	mux.HandleFunc("PUT /api/workorders/{id}", authMiddleware.RequireCaller(h.Update))
	mux.HandleFunc("POST /api/workorders/{id}/hold", authMiddleware.RequireCaller(h.Hold))
	mux.HandleFunc("POST /api/workorders/{id}/resume", authMiddleware.RequireCaller(h.Resume))
	mux.HandleFunc("POST /api/workorders/{id}/deliver", authMiddleware.RequireCaller(h.Deliver))
}

// Create handles POST /api/workorders.
func (h *WorkOrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var order models.WorkOrder
	if !decodeBody(w, r, &order) {
		return
	}
	if err := h.orders.Create(r.Context(), &order); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, order)
}

// List handles GET /api/workorders.
func (h *WorkOrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"work_orders": orders})
}

// Get handles GET /api/workorders/{id}.
func (h *WorkOrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, order)
}

// Update handles PUT /api/workorders/{id}.
func (h *WorkOrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var order models.WorkOrder
	if !decodeBody(w, r, &order) {
		return
	}
	order.ID = id
	if err := h.orders.Update(r.Context(), &order); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, order)
}

// Hold handles POST /api/workorders/{id}/hold.
func (h *WorkOrdersHandler) Hold(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req HoldRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.orders.Hold(r.Context(), id, req.Reason); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resume handles POST /api/workorders/{id}/resume.
func (h *WorkOrdersHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.orders.Resume(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deliver handles POST /api/workorders/{id}/deliver.
func (h *WorkOrdersHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req DeliverRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DeliveredAt.IsZero() {
		req.DeliveredAt = time.Now().UTC()
	}
	if err := h.orders.Deliver(r.Context(), id, req.DeliveredAt, req.QtyShipped); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// WIP handles GET /api/workorders/wip.
func (h *WorkOrdersHandler) WIP(w http.ResponseWriter, r *http.Request) {
	ages, err := h.orders.WIPAges(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"work_orders": ages})
}
