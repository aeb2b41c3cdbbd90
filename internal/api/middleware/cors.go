package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
}

// CORS returns a CORS middleware with the given allowed origins. Credentials
// are allowed because the frontend sends the access_token cookie.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		// PDF downloads need the filename, 429s carry Retry-After.
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// FrontendCORS allows the configured frontend plus any extra comma-separated
// origins. Local development origins are added when the frontend is local.
func FrontendCORS(frontendURL, extra string) func(http.Handler) http.Handler {
	return CORS(FrontendOrigins(frontendURL, extra))
}

// FrontendOrigins builds the de-duplicated origin list for FrontendCORS.
// A wildcard is dropped since it cannot be combined with credentials.
func FrontendOrigins(frontendURL, extra string) []string {
	candidates := append([]string{frontendURL}, strings.Split(extra, ",")...)
	if strings.Contains(frontendURL, "localhost") || strings.Contains(frontendURL, "127.0.0.1") {
		candidates = append(candidates, devOrigins...)
	}

	seen := make(map[string]bool, len(candidates))
	origins := make([]string, 0, len(candidates))
	for _, o := range candidates {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || o == "*" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}
