package middleware

import (
	"net/http"

	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/http/response"
)

// EnsureAdmin lets only admin tokens through. Anonymous and non-admin
// requests both get 401, so the route's existence is not confirmed to
// regular users.
func EnsureAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := request.ClaimsFrom(r.Context())
		if claims == nil || !claims.IsAdmin {
			response.Unauthorized(w, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EnsureCorrectUserOrAdmin lets through admins and the user named by the
// route parameter param.
//
// Example:
//
//	users.GET("/{username}", c.Get).Middleware(middleware.EnsureCorrectUserOrAdmin("username"))
func EnsureCorrectUserOrAdmin(param string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := request.ClaimsFrom(r.Context())
			if claims == nil {
				response.Unauthorized(w, "")
				return
			}
			if !claims.IsAdmin && claims.Username != request.New(r).RouteParam(param) {
				response.Unauthorized(w, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
