package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS allows the web canvas to call the API from the listed origins. A
// "*" entry allows any origin without credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !slices.Contains(allowedOrigins, "*"),
		MaxAge:           3600,
	})
	return c.Handler
}
