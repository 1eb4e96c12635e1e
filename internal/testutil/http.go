// -----------------------------------------------------------------------------
// HTTP Test Helpers
// -----------------------------------------------------------------------------
// A fluent request builder and response assertions for handler tests:
//
//	testutil.NewRequest(http.MethodPost, "/auth/token").
//	    WithJSON(map[string]string{"username": "u1", "password": "secret"}).
//	    Send(handler).
//	    AssertStatus(t, http.StatusOK).
//	    AssertData(t, "token", "tok")
//
// Paths passed to AssertData are dot-separated and start inside the
// envelope's "data" object; numeric segments index arrays.
// -----------------------------------------------------------------------------

package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyonik/jobly-api/pkg/auth"
)

// JWT is the signing configuration handler tests share.
var JWT = auth.JWTConfig{Secret: "test-secret", Issuer: "jobly-test", ExpirationTime: time.Hour}

// Request builds an *http.Request for a handler test.
type Request struct {
	method  string
	url     string
	body    io.Reader
	headers map[string]string
}

func NewRequest(method, url string) *Request {
	return &Request{method: method, url: url, headers: make(map[string]string)}
}

// WithJSON encodes data as the body. A string is sent as is.
func (r *Request) WithJSON(data any) *Request {
	if s, ok := data.(string); ok {
		r.body = strings.NewReader(s)
	} else {
		raw, _ := json.Marshal(data)
		r.body = bytes.NewReader(raw)
	}
	r.headers["Content-Type"] = "application/json"
	return r
}

func (r *Request) WithHeader(key, value string) *Request {
	r.headers[key] = value
	return r
}

// As signs a token for username with JWT and sends it as a bearer token.
func (r *Request) As(t *testing.T, username string, isAdmin bool) *Request {
	t.Helper()
	tok, err := auth.GenerateToken(username, isAdmin, JWT)
	require.NoError(t, err)
	return r.WithHeader("Authorization", "Bearer "+tok)
}

// Send runs the request through handler.
func (r *Request) Send(handler http.Handler) *Response {
	req := httptest.NewRequest(r.method, r.url, r.body)
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return &Response{Recorder: rec}
}

// Response wraps the recorded response.
type Response struct {
	Recorder *httptest.ResponseRecorder
}

func (r *Response) Code() int    { return r.Recorder.Code }
func (r *Response) Body() string { return r.Recorder.Body.String() }

func (r *Response) AssertStatus(t *testing.T, want int) *Response {
	t.Helper()
	assert.Equal(t, want, r.Recorder.Code, "body: %s", r.Body())
	return r
}

// AssertJSON checks the content type.
func (r *Response) AssertJSON(t *testing.T) *Response {
	t.Helper()
	assert.Contains(t, r.Recorder.Header().Get("Content-Type"), "application/json")
	return r
}

// Envelope decodes the whole response body.
func (r *Response) Envelope(t *testing.T) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(r.Recorder.Body.Bytes(), &env), "body: %s", r.Body())
	return env
}

// Data returns the value at path inside "data", and whether it exists.
func (r *Response) Data(t *testing.T, path string) (any, bool) {
	t.Helper()
	var cur any = r.Envelope(t)["data"]
	if path == "" {
		return cur, cur != nil
	}
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// AssertData checks the value at path. JSON numbers decode as float64.
func (r *Response) AssertData(t *testing.T, path string, want any) *Response {
	t.Helper()
	got, ok := r.Data(t, path)
	if assert.True(t, ok, "data.%s missing in %s", path, r.Body()) {
		assert.Equal(t, want, got, "data.%s", path)
	}
	return r
}

// AssertError checks the envelope's error message.
func (r *Response) AssertError(t *testing.T, want string) *Response {
	t.Helper()
	assert.Equal(t, want, r.Envelope(t)["error"])
	return r
}

// AssertFieldError checks that errors[field] is present.
func (r *Response) AssertFieldError(t *testing.T, field string) *Response {
	t.Helper()
	errs, _ := r.Envelope(t)["errors"].(map[string]any)
	assert.Contains(t, errs, field, "body: %s", r.Body())
	return r
}
