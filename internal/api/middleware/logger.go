package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

// slowRequest is the duration above which a successful request is logged
// as a warning. AI chat and report generation usually stay below it.
const slowRequest = 10 * time.Second

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
	fields     map[string]interface{}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// AddLogField adds a field to the request log
func AddLogField(w http.ResponseWriter, key string, value interface{}) {
	if rw, ok := w.(*responseWriter); ok {
		rw.fields[key] = value
	}
}

// Logger returns a middleware that logs HTTP requests with their chi route
// pattern. Probe endpoints are logged at debug level.
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				fields:         make(map[string]interface{}),
			}

			next.ServeHTTP(wrapped, r)
			elapsed := time.Since(start)

			fields := map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"route":       routePattern(r),
				"duration_ms": elapsed.Milliseconds(),
				"bytes":       wrapped.written,
				"ip":          ClientIP(r),
				"user_agent":  r.UserAgent(),
				"request_id":  GetRequestID(r),
			}
			for k, v := range wrapped.fields {
				fields[k] = v
			}

			entry := log.WithFields(fields)
			switch {
			case isProbe(r.URL.Path):
				entry.Debug("HTTP request")
			case wrapped.statusCode >= http.StatusInternalServerError:
				entry.Error("HTTP request")
			case wrapped.statusCode >= http.StatusBadRequest:
				entry.Warn("HTTP request")
			case elapsed > slowRequest:
				entry.Warn("Slow HTTP request")
			default:
				entry.Info("HTTP request")
			}
		})
	}
}

func isProbe(path string) bool {
	switch path {
	case "/health", "/healthz", "/readyz", "/metrics", "/api/health":
		return true
	}
	return false
}

// routePattern returns the matched pattern such as /api/crm/clients/{id},
// or the raw path when chi did not route the request.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
