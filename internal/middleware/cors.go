package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser clients from origins. "*" allows any origin; in that
// case credentials are not allowed.
func CORS(origins []string) Middleware {
	allowCredentials := true
	for _, o := range origins {
		if o == "*" {
			allowCredentials = false
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}
