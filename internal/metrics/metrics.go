// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------
// Prometheus collectors for the API. Collectors are registered on the
// default registry at init (promauto), and Handler serves them.
//
//   - HTTP: request count, latency and in-flight requests per route
//   - Cache: lookups by outcome, prefix invalidations
//   - Events: domain events by name
// -----------------------------------------------------------------------------

package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/biyonik/jobly-api/pkg/cache"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobly_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobly_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobly_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobly_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobly_cache_lookups_total",
			Help: "Cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobly_cache_invalidations_total",
			Help: "Cache prefix invalidations",
		},
		[]string{"prefix"},
	)

	DomainEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobly_domain_events_total",
			Help: "Domain events dispatched, by name",
		},
		[]string{"event"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records one finished request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordEvent counts a domain event.
func RecordEvent(name string) {
	DomainEvents.WithLabelValues(name).Inc()
}

// RecordInvalidation counts a prefix invalidation. The trailing colon is
// dropped from the label.
func RecordInvalidation(prefix string) {
	CacheInvalidations.WithLabelValues(strings.TrimSuffix(prefix, ":")).Inc()
}

// InstrumentedCache counts Get outcomes of the wrapped cache.
type InstrumentedCache struct {
	cache.Cache
}

// Instrument wraps c.
func Instrument(c cache.Cache) *InstrumentedCache {
	return &InstrumentedCache{Cache: c}
}

func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := c.Cache.Get(ctx, key)
	switch {
	case err != nil:
		CacheLookups.WithLabelValues("error").Inc()
	case ok:
		CacheLookups.WithLabelValues("hit").Inc()
	default:
		CacheLookups.WithLabelValues("miss").Inc()
	}
	return v, ok, err
}

func (c *InstrumentedCache) DeletePrefix(ctx context.Context, prefix string) error {
	RecordInvalidation(prefix)
	return c.Cache.DeletePrefix(ctx, prefix)
}

// Stats forwards to the wrapped cache when it reports statistics.
func (c *InstrumentedCache) Stats() map[string]any {
	if s, ok := c.Cache.(cache.Stats); ok {
		return s.Stats()
	}
	return nil
}
