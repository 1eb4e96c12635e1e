package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyonik/jobly-api/pkg/cache"
)

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("GET", "/companies", "200")
	before := testutil.ToFloat64(c)

	RecordAPIRequest("GET", "/companies", 200, 15*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordAPIRequest_UnmatchedRoute(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("GET", "unmatched", "404")
	before := testutil.ToFloat64(c)

	RecordAPIRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordInvalidation_TrimsColon(t *testing.T) {
	c := CacheInvalidations.WithLabelValues("jobs")
	before := testutil.ToFloat64(c)

	RecordInvalidation("jobs:")

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestInstrumentedCache(t *testing.T) {
	ctx := context.Background()
	c := Instrument(cache.NewMemoryCache("t:"))

	hits := CacheLookups.WithLabelValues("hit")
	misses := CacheLookups.WithLabelValues("miss")
	h0, m0 := testutil.ToFloat64(hits), testutil.ToFloat64(misses)

	_, ok, err := c.Get(ctx, "companies:list:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "companies:list:1", []byte("[]"), time.Minute))
	v, ok, err := c.Get(ctx, "companies:list:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(v))

	assert.Equal(t, h0+1, testutil.ToFloat64(hits))
	assert.Equal(t, m0+1, testutil.ToFloat64(misses))

	require.NoError(t, c.DeletePrefix(ctx, "companies:"))
	_, ok, _ = c.Get(ctx, "companies:list:1")
	assert.False(t, ok)
}

func TestHandler_ServesMetrics(t *testing.T) {
	RecordEvent("company.created")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobly_domain_events_total")
}
