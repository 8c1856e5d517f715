package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/auth"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/kpi"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/services"
)

// DashboardHandler serves the aggregated KPI views.
type DashboardHandler struct {
	dashboard services.DashboardService
	logger    *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(dashboard services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// RegisterRoutes registers the dashboard routes on the given mux.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/dashboard", authMiddleware.RequireCaller(h.Snapshot))
	mux.HandleFunc("GET /api/dashboard/series", authMiddleware.RequireCaller(h.Series))
	mux.HandleFunc("GET /api/dashboard/breakdown", authMiddleware.RequireCaller(h.Breakdown))
}

// parsePeriod reads the from/to query parameters. Absent values default to
// the trailing 7 days ending now.
func parsePeriod(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date %q", raw)
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date %q", raw)
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to precedes from")
	}
	return from, to, nil
}

// Snapshot handles GET /api/dashboard.
func (h *DashboardHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_period", err.Error())
		return
	}

	snapshot, err := h.dashboard.Snapshot(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, snapshot)
}

// Series handles GET /api/dashboard/series?metric=efficiency.
func (h *DashboardHandler) Series(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_period", err.Error())
		return
	}

	metric := kpi.Metric(r.URL.Query().Get("metric"))
	known := false
	for _, m := range kpi.AllMetrics() {
		if m == metric {
			known = true
			break
		}
	}
	if !known {
		_ = ErrorResponse(w, http.StatusBadRequest, "unknown_metric", fmt.Sprintf("unknown metric %q", metric))
		return
	}

	points, err := h.dashboard.Series(r.Context(), metric, from, to)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"metric": metric,
		"points": points,
	})
}

// Breakdown handles GET /api/dashboard/breakdown?by=shift|product.
func (h *DashboardHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_period", err.Error())
		return
	}

	groups, err := h.dashboard.Breakdown(r.Context(), r.URL.Query().Get("by"), from, to)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"groups": groups})
}
