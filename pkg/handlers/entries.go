package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/auth"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/services"
)

// EntriesHandler handles operational data entry endpoints. Malformed bodies
// are rejected at this boundary; the services assume validated shapes.
type EntriesHandler struct {
	entries services.EntryService
	imports services.ImportService
	logger  *zap.Logger
}

// NewEntriesHandler creates a new entries handler.
func NewEntriesHandler(entries services.EntryService, imports services.ImportService, logger *zap.Logger) *EntriesHandler {
	return &EntriesHandler{entries: entries, imports: imports, logger: logger}
}

// RegisterRoutes registers the entry routes on the given mux.
func (h *EntriesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/entries/production", authMiddleware.RequireCaller(h.CreateProduction))
	mux.HandleFunc("PUT /api/entries/production/{id}", authMiddleware.RequireCaller(h.UpdateProduction))
	mux.HandleFunc("GET /api/entries/production/{id}", authMiddleware.RequireCaller(h.GetProduction))
	mux.HandleFunc("DELETE /api/entries/production/{id}", authMiddleware.RequireCaller(h.DeleteProduction))
	mux.HandleFunc("POST /api/entries/downtime", authMiddleware.RequireCaller(h.CreateDowntime))
	mux.HandleFunc("POST /api/entries/attendance", authMiddleware.RequireCaller(h.CreateAttendance))
	mux.HandleFunc("POST /api/entries/quality", authMiddleware.RequireCaller(h.CreateQuality))
	mux.HandleFunc("POST /api/import/production", authMiddleware.RequireCaller(h.ImportProduction))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_id", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// CreateProduction handles POST /api/entries/production.
func (h *EntriesHandler) CreateProduction(w http.ResponseWriter, r *http.Request) {
	var entry models.ProductionEntry
	if !decodeBody(w, r, &entry) {
		return
	}
	if err := h.entries.CreateProductionEntry(r.Context(), &entry); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, entry)
}

// UpdateProduction handles PUT /api/entries/production/{id}.
func (h *EntriesHandler) UpdateProduction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var entry models.ProductionEntry
	if !decodeBody(w, r, &entry) {
		return
	}
	entry.ID = id
	if err := h.entries.UpdateProductionEntry(r.Context(), &entry); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, entry)
}

// GetProduction handles GET /api/entries/production/{id}.
func (h *EntriesHandler) GetProduction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entry, err := h.entries.GetProductionEntry(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, entry)
}

// DeleteProduction handles DELETE /api/entries/production/{id}.
func (h *EntriesHandler) DeleteProduction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.entries.DeleteProductionEntry(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateDowntime handles POST /api/entries/downtime.
func (h *EntriesHandler) CreateDowntime(w http.ResponseWriter, r *http.Request) {
	var entry models.DowntimeEntry
	if !decodeBody(w, r, &entry) {
		return
	}
	if err := h.entries.CreateDowntimeEntry(r.Context(), &entry); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, entry)
}

// CreateAttendance handles POST /api/entries/attendance.
func (h *EntriesHandler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	var entry models.AttendanceEntry
	if !decodeBody(w, r, &entry) {
		return
	}
	if err := h.entries.CreateAttendanceEntry(r.Context(), &entry); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, entry)
}

// CreateQuality handles POST /api/entries/quality.
func (h *EntriesHandler) CreateQuality(w http.ResponseWriter, r *http.Request) {
	var entry models.QualityEntry
	if !decodeBody(w, r, &entry) {
		return
	}
	if err := h.entries.CreateQualityEntry(r.Context(), &entry); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, entry)
}

// ImportProduction handles POST /api/import/production with a JSON array of
// rows. Row failures come back per-row; the response is 200 even when some
// rows fail.
func (h *EntriesHandler) ImportProduction(w http.ResponseWriter, r *http.Request) {
	var rows []*models.ProductionEntry
	if !decodeBody(w, r, &rows) {
		return
	}
	summary, err := h.imports.ImportProductionEntries(r.Context(), rows)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, summary)
}
