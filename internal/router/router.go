// -----------------------------------------------------------------------------
// Router
// -----------------------------------------------------------------------------
// A small pattern router. Patterns are slash-separated segments where
// "{name}" matches any single segment and stores it as a route parameter:
//
//	r := router.New()
//	r.Use(middleware.RequestID)
//
//	companies := r.Group("/companies")
//	companies.GET("", c.List)
//	companies.PATCH("/{handle}", c.Update).Middleware(middleware.EnsureAdmin)
//
// Global middleware (Use) wraps every request, matched or not. Group and
// route middleware run after matching, so they can read route parameters.
// Unknown paths get a JSON 404; known paths with the wrong method a 405.
// -----------------------------------------------------------------------------

package router

import (
	"net/http"
	"strings"

	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/http/response"
	"github.com/biyonik/jobly-api/internal/middleware"
)

// HandlerFunc is a controller action.
type HandlerFunc func(http.ResponseWriter, *request.Request)

type Router struct {
	routes      []*Route
	middlewares []middleware.Middleware
}

type Route struct {
	method      string
	path        string
	segments    []string
	handler     http.Handler
	middlewares []middleware.Middleware
}

type RouteGroup struct {
	prefix      string
	middlewares []middleware.Middleware
	router      *Router
}

func New() *Router {
	return &Router{}
}

// Use adds global middleware.
func (r *Router) Use(mws ...middleware.Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

func (r *Router) GET(path string, h HandlerFunc) *Route    { return r.add(http.MethodGet, path, h) }
func (r *Router) POST(path string, h HandlerFunc) *Route   { return r.add(http.MethodPost, path, h) }
func (r *Router) PATCH(path string, h HandlerFunc) *Route  { return r.add(http.MethodPatch, path, h) }
func (r *Router) DELETE(path string, h HandlerFunc) *Route { return r.add(http.MethodDelete, path, h) }

// Handle registers a plain http.Handler, e.g. the metrics endpoint.
func (r *Router) Handle(method, path string, h http.Handler) *Route {
	route := &Route{
		method:   method,
		path:     path,
		segments: split(path),
		handler:  h,
	}
	r.routes = append(r.routes, route)
	return route
}

func (r *Router) add(method, path string, h HandlerFunc) *Route {
	return r.Handle(method, path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h(w, request.New(req))
	}))
}

// Middleware appends route middleware.
func (route *Route) Middleware(mws ...middleware.Middleware) *Route {
	route.middlewares = append(route.middlewares, mws...)
	return route
}

// Group returns a group whose routes share prefix and middleware.
func (r *Router) Group(prefix string, mws ...middleware.Middleware) *RouteGroup {
	return &RouteGroup{prefix: prefix, middlewares: mws, router: r}
}

// Use adds middleware to routes registered on g afterwards.
func (g *RouteGroup) Use(mws ...middleware.Middleware) {
	g.middlewares = append(g.middlewares, mws...)
}

func (g *RouteGroup) GET(path string, h HandlerFunc) *Route    { return g.add(http.MethodGet, path, h) }
func (g *RouteGroup) POST(path string, h HandlerFunc) *Route   { return g.add(http.MethodPost, path, h) }
func (g *RouteGroup) PATCH(path string, h HandlerFunc) *Route  { return g.add(http.MethodPatch, path, h) }
func (g *RouteGroup) DELETE(path string, h HandlerFunc) *Route { return g.add(http.MethodDelete, path, h) }

func (g *RouteGroup) add(method, path string, h HandlerFunc) *Route {
	route := g.router.add(method, g.prefix+path, h)
	route.middlewares = append(append([]middleware.Middleware{}, g.middlewares...), route.middlewares...)
	return route
}

// Routes lists "METHOD path" for every registered route.
func (r *Router) Routes() []string {
	out := make([]string, len(r.routes))
	for i, route := range r.routes {
		out[i] = route.method + " " + route.path
	}
	return out
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	middleware.Chain(http.HandlerFunc(r.dispatch), r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	path := split(req.URL.Path)
	pathMatched := false

	for _, route := range r.routes {
		params, ok := match(route.segments, path)
		if !ok {
			continue
		}
		pathMatched = true
		if route.method != req.Method {
			continue
		}

		if rs, ok := w.(middleware.RouteSetter); ok {
			rs.SetRoute(route.path)
		}
		req = req.WithContext(request.WithParams(req.Context(), route.path, params))
		middleware.Chain(route.handler, route.middlewares...).ServeHTTP(w, req)
		return
	}

	if pathMatched {
		response.MethodNotAllowed(w)
		return
	}
	response.NotFound(w, "not found")
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func match(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}

	params := make(map[string]string)
	for i, part := range pattern {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			if path[i] == "" {
				return nil, false
			}
			params[strings.Trim(part, "{}")] = path[i]
			continue
		}
		if part != path[i] {
			return nil, false
		}
	}
	return params, true
}
