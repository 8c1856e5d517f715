package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// RequestLogger returns middleware that logs every HTTP request with the
// authenticated caller attached when one is present. Server errors log at
// WARN, everything else at DEBUG. Pass nil to disable.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			}
			if caller, ok := tenancy.GetCaller(r.Context()); ok {
				fields = append(fields,
					zap.String("subject", caller.Subject),
					zap.String("role", string(caller.Role)))
			}

			if wrapped.statusCode >= http.StatusInternalServerError {
				logger.Warn("HTTP request", fields...)
			} else {
				logger.Debug("HTTP request", fields...)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
