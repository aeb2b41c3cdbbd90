package middleware

import (
	"net/http"
	"strings"
)

const (
	apiCSP     = "default-src 'none'; frame-ancestors 'none'"
	swaggerCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
)

// SecurityHeaders sets browser hardening headers. HSTS is only sent in
// production and responses under /api/ are marked no-store.
func SecurityHeaders(production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if production {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			switch {
			case strings.HasPrefix(r.URL.Path, "/swagger/"):
				h.Set("Content-Security-Policy", swaggerCSP)
			case strings.HasPrefix(r.URL.Path, "/api/"):
				h.Set("Content-Security-Policy", apiCSP)
				h.Set("Cache-Control", "no-store")
			default:
				h.Set("Content-Security-Policy", apiCSP)
			}

			next.ServeHTTP(w, r)
		})
	}
}
