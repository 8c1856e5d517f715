package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeServiceError maps a service-layer error onto the HTTP surface.
// Authorization failures stay visible as 403s; everything unrecognized
// becomes an opaque 500 with the detail kept in the log.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		_ = ErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrInvalidRole),
		errors.Is(err, apperrors.ErrNoTenantAssigned):
		_ = ErrorResponse(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		_ = ErrorResponse(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperrors.ErrTenantDeactivated):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "tenant_deactivated", err.Error())
	case errors.Is(err, apperrors.ErrTenantMismatch):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "tenant_mismatch", err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
