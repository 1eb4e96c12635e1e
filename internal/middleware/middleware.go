// -----------------------------------------------------------------------------
// HTTP Middleware
// -----------------------------------------------------------------------------
// Global chain, outermost first:
//
//	Recovery -> ClientIP -> RequestID -> Logging -> Metrics -> CORS -> RateLimit -> Authenticate
//
// Route-level guards (EnsureLoggedIn, EnsureAdmin, EnsureCorrectUserOrAdmin)
// run after the router has matched the route, so they can read path
// parameters.
// -----------------------------------------------------------------------------

package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/metrics"
)

type Middleware func(next http.Handler) http.Handler

// Chain applies mws so that the first one is outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID keeps a client-supplied X-Request-ID or generates one, and
// echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// ClientIP resolves the caller's address once, believing forwarding headers
// only from trusted proxies, and stores it for request.ClientIP.
func ClientIP(proxies request.TrustedProxies) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := request.WithClientIP(r.Context(), proxies.Resolve(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder remembers the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

func record(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w}
}

// Logging attaches a request-scoped logger (with the request id) to the
// context and logs one line per request.
func Logging(logger zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			l := logger.With().Str("request_id", r.Header.Get(RequestIDHeader)).Logger()
			r = r.WithContext(l.WithContext(r.Context()))

			rec := record(w)
			next.ServeHTTP(rec, r)

			status := rec.code()
			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = l.Error()
			case status >= 400:
				ev = l.Warn()
			default:
				ev = l.Info()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", rec.bytes).
				Dur("duration", time.Since(start)).
				Str("ip", request.ClientIP(r)).
				Msg("request")
		})
	}
}

// routeRecorder lets the router report the matched pattern back up to
// Metrics, which runs before routing.
type routeRecorder struct {
	*statusRecorder
	pattern string
}

// SetRoute is called by the router once a route matched.
func (r *routeRecorder) SetRoute(pattern string) {
	r.pattern = pattern
}

// RouteSetter is implemented by writers that want the matched pattern.
type RouteSetter interface {
	SetRoute(pattern string)
}

// Metrics records request count and latency per route pattern, so
// /companies/acme and /companies/other share one series.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.APIActiveRequests.Inc()
		defer metrics.APIActiveRequests.Dec()

		start := time.Now()
		rec := &routeRecorder{statusRecorder: record(w)}
		next.ServeHTTP(rec, r)

		metrics.RecordAPIRequest(r.Method, rec.pattern, rec.code(), time.Since(start))
	})
}
