// -----------------------------------------------------------------------------
// Services
// -----------------------------------------------------------------------------
// Business rules between the HTTP layer and the repositories:
//
//   - request bodies are validated here (validation.Struct, PatchSchema)
//   - query filters and patches are compiled with sqlfrag
//   - reads go through the cache, writes raise domain events
//
// Services depend on small store interfaces, not on the concrete
// repositories, so tests can run without a database.
// -----------------------------------------------------------------------------

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/biyonik/jobly-api/pkg/cache"
	"github.com/biyonik/jobly-api/pkg/events"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

// Cache namespaces. Every key a service caches starts with one of these.
const (
	CompaniesNamespace = "companies:"
	JobsNamespace      = "jobs:"
)

// Publisher is the part of events.Dispatcher services need.
type Publisher interface {
	Dispatch(ctx context.Context, event events.Event) error
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Events   Publisher
	Logger   zerolog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	return d
}

// publish raises an event after a committed write. Listener failures are
// logged; the write already happened, so they never fail the request.
func (d Deps) publish(ctx context.Context, name, subject string, payload any) {
	if d.Events == nil {
		return
	}
	if err := d.Events.Dispatch(ctx, events.New(name, subject, payload)); err != nil {
		d.Logger.Warn().Err(err).Str("event", name).Str("subject", subject).Msg("event listeners failed")
	}
}

// logUpdated records which fields a partial update touched. Values are left
// out; a user update may carry a password hash.
func (d Deps) logUpdated(entity, subject string, fields sqlfrag.Fields) {
	d.Logger.Debug().
		Str("entity", entity).
		Str("subject", subject).
		Strs("fields", fields.Keys()).
		Msg("record updated")
}
