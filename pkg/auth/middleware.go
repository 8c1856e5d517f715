package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
)

// Middleware authenticates HTTP requests and places the resulting
// tenancy.Caller on the request context for handlers and services.
type Middleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewMiddleware creates an auth middleware over the given token validator.
func NewMiddleware(validator TokenValidator, logger *zap.Logger) *Middleware {
	return &Middleware{validator: validator, logger: logger}
}

// RequireCaller validates the bearer token and requires that its claims map
// to a well-formed caller. The caller is stored in context.
func (m *Middleware) RequireCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.validateRequest(r)
		if err != nil {
			m.unauthorized(w, "Authentication required")
			return
		}

		caller, err := claims.Caller()
		if err != nil {
			m.logger.Warn("Token carried malformed tenant-scope claims",
				zap.String("subject", claims.Subject),
				zap.Error(err))
			m.unauthorized(w, "Invalid tenant scope in token")
			return
		}

		ctx := tenancy.SetCaller(r.Context(), caller)
		next(w, r.WithContext(ctx))
	}
}

// validateRequest extracts and validates the JWT from the Authorization
// header.
func (m *Middleware) validateRequest(r *http.Request) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		m.logger.Debug("No JWT found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return nil, ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		m.logger.Debug("Invalid Authorization header format",
			zap.String("path", r.URL.Path))
		return nil, ErrInvalidAuthFormat
	}

	claims, err := m.validator.ValidateToken(parts[1])
	if err != nil {
		m.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		return nil, err
	}
	return claims, nil
}

// unauthorized returns a 401 response with a JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
