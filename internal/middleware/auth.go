package middleware

import (
	"net/http"

	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/http/response"
	"github.com/biyonik/jobly-api/pkg/auth"
)

// Authenticate verifies a bearer token when one is sent and stores its
// claims on the context. A missing or invalid token is not an error here:
// the request continues anonymously and the route guards decide.
func Authenticate(cfg auth.JWTConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
			if token != "" {
				if claims, err := auth.ParseToken(token, cfg); err == nil {
					r = r.WithContext(request.WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnsureLoggedIn rejects anonymous requests with 401.
func EnsureLoggedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if request.ClaimsFrom(r.Context()) == nil {
			response.Unauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
