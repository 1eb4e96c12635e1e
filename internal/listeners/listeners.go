// -----------------------------------------------------------------------------
// Event Listeners
// -----------------------------------------------------------------------------
// Reactions to domain events:
//
//   - CacheInvalidator drops cached lists and details after a write
//   - AuditLog writes one structured log line per event, off the request path
//   - Metrics counts events
//
// Register wires all of them onto a dispatcher.
// -----------------------------------------------------------------------------

package listeners

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/biyonik/jobly-api/internal/metrics"
	"github.com/biyonik/jobly-api/internal/services"
	"github.com/biyonik/jobly-api/pkg/cache"
	"github.com/biyonik/jobly-api/pkg/events"
)

// InvalidationPrefixes maps an event entity to the cache namespaces it
// makes stale. A company detail embeds its jobs and a job carries its
// company handle, so both entities clear both namespaces.
var InvalidationPrefixes = map[string][]string{
	"company": {services.CompaniesNamespace, services.JobsNamespace},
	"job":     {services.JobsNamespace, services.CompaniesNamespace},
}

// CacheInvalidator clears cache namespaces on writes.
type CacheInvalidator struct {
	cache cache.Cache
}

func NewCacheInvalidator(c cache.Cache) *CacheInvalidator {
	return &CacheInvalidator{cache: c}
}

func (l *CacheInvalidator) Handle(ctx context.Context, e events.Event) error {
	var errs []error
	for _, prefix := range InvalidationPrefixes[events.Entity(e.Name())] {
		if err := l.cache.DeletePrefix(ctx, prefix); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AuditLog logs every event it receives.
type AuditLog struct {
	logger zerolog.Logger
}

func NewAuditLog(logger zerolog.Logger) *AuditLog {
	return &AuditLog{logger: logger.With().Str("component", "audit").Logger()}
}

func (l *AuditLog) Handle(_ context.Context, e events.Event) error {
	l.logger.Info().
		Str("event", e.Name()).
		Str("subject", e.Subject()).
		Time("occurred_at", e.OccurredAt()).
		Msg("domain event")
	return nil
}

// Metrics counts events by name.
var Metrics = events.ListenerFunc(func(_ context.Context, e events.Event) error {
	metrics.RecordEvent(e.Name())
	return nil
})

// Register attaches the standard listeners.
func Register(d *events.Dispatcher, c cache.Cache, logger zerolog.Logger) {
	invalidator := NewCacheInvalidator(c)
	for entity := range InvalidationPrefixes {
		d.Listen(entity+".*", invalidator)
	}
	d.ListenAsync("*", NewAuditLog(logger))
	d.Listen("*", Metrics)
}
