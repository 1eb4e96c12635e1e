// -----------------------------------------------------------------------------
// Request Wrapper
// -----------------------------------------------------------------------------
// Request embeds *http.Request and adds the helpers controllers need: route
// parameters, query-string filters, JSON bodies and the authenticated user.
// -----------------------------------------------------------------------------

package request

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/biyonik/jobly-api/internal/apperr"
	"github.com/biyonik/jobly-api/pkg/auth"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

type paramsKey struct{}
type routeKey struct{}
type claimsKey struct{}

// WithParams stores matched route parameters and the route pattern.
func WithParams(ctx context.Context, pattern string, params map[string]string) context.Context {
	ctx = context.WithValue(ctx, paramsKey{}, params)
	return context.WithValue(ctx, routeKey{}, pattern)
}

// RoutePattern returns the pattern of the matched route, e.g. "/jobs/{id}".
func RoutePattern(ctx context.Context) string {
	p, _ := ctx.Value(routeKey{}).(string)
	return p
}

// WithClaims stores the verified token claims.
func WithClaims(ctx context.Context, claims *auth.JWTClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the claims stored by WithClaims, or nil.
func ClaimsFrom(ctx context.Context) *auth.JWTClaims {
	c, _ := ctx.Value(claimsKey{}).(*auth.JWTClaims)
	return c
}

type Request struct {
	*http.Request
}

func New(r *http.Request) *Request {
	return &Request{Request: r}
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func (r *Request) BearerToken() string {
	return auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
}

// Filters shapes the query string for sqlfrag.Filter: the first value of
// each key, with "true" and "false" turned into booleans. Numbers stay
// strings; the numeric transforms coerce them.
//
// Example:
//
//	GET /jobs?title=eng&minSalary=100&hasEquity=true
//	// sqlfrag.Filters{"title": "eng", "minSalary": "100", "hasEquity": true}
func (r *Request) Filters() sqlfrag.Filters {
	q := r.URL.Query()
	out := make(sqlfrag.Filters, len(q))
	for key, vals := range q {
		if len(vals) == 0 {
			continue
		}
		switch v := vals[0]; v {
		case "true":
			out[key] = true
		case "false":
			out[key] = false
		default:
			out[key] = v
		}
	}
	return out
}

// RouteParam returns a path parameter matched by the router.
func (r *Request) RouteParam(key string) string {
	params, _ := r.Context().Value(paramsKey{}).(map[string]string)
	return params[key]
}

// RouteInt returns a path parameter as a positive integer.
func (r *Request) RouteInt(key string) (int64, error) {
	n, err := strconv.ParseInt(r.RouteParam(key), 10, 64)
	if err != nil || n <= 0 {
		return 0, apperr.BadRequest("%s must be a positive integer", key)
	}
	return n, nil
}

// ParseJSON decodes the body into dest. Struct targets reject unknown
// fields; *sqlfrag.Fields keeps key order. An empty or malformed body is a
// bad request.
func (r *Request) ParseJSON(dest any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if _, isFields := dest.(*sqlfrag.Fields); !isFields {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("request body is empty")
		}
		var inputErr *sqlfrag.InputError
		if errors.As(err, &inputErr) {
			return err
		}
		return apperr.BadRequest("invalid JSON body: %v", err)
	}
	return nil
}

// Claims returns the authenticated user's claims, or nil for anonymous
// requests.
func (r *Request) Claims() *auth.JWTClaims {
	return ClaimsFrom(r.Context())
}

// IsAdmin reports whether the request carries an admin token.
func (r *Request) IsAdmin() bool {
	c := r.Claims()
	return c != nil && c.IsAdmin
}
