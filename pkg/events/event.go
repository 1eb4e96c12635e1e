// -----------------------------------------------------------------------------
// Event System
// -----------------------------------------------------------------------------
// Domain events raised by the services after a write commits. Listeners
// react to them (cache invalidation, audit log) without the services knowing
// who is listening.
//
// Names are dotted, entity first ("company.updated"), so a listener can
// subscribe to a whole entity with a wildcard ("company.*").
// -----------------------------------------------------------------------------

package events

import (
	"context"
	"strings"
	"time"
)

// Event is something that already happened.
type Event interface {
	// Name is the dotted event name, e.g. "job.created".
	Name() string

	// Subject identifies the affected record (handle, id or username).
	Subject() string

	OccurredAt() time.Time

	Payload() any
}

// BaseEvent is the Event used throughout the API.
type BaseEvent struct {
	name       string
	subject    string
	occurredAt time.Time
	payload    any
}

// New builds an event stamped with the current time.
//
// Example:
//
//	d.Dispatch(ctx, events.New(events.CompanyUpdated, company.Handle, company))
func New(name, subject string, payload any) *BaseEvent {
	return &BaseEvent{
		name:       name,
		subject:    subject,
		occurredAt: time.Now(),
		payload:    payload,
	}
}

func (e *BaseEvent) Name() string          { return e.name }
func (e *BaseEvent) Subject() string       { return e.subject }
func (e *BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e *BaseEvent) Payload() any          { return e.payload }

// Entity returns the part of an event name before the first dot.
func Entity(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

const (
	CompanyCreated = "company.created"
	CompanyUpdated = "company.updated"
	CompanyDeleted = "company.deleted"

	JobCreated = "job.created"
	JobUpdated = "job.updated"
	JobDeleted = "job.deleted"

	UserRegistered = "user.registered"
	UserCreated    = "user.created"
	UserUpdated    = "user.updated"
	UserDeleted    = "user.deleted"

	ApplicationCreated = "application.created"
)

// Listener reacts to an event.
type Listener interface {
	Handle(ctx context.Context, event Event) error
}

// ListenerFunc adapts a function to Listener.
//
//	d.Listen("job.*", events.ListenerFunc(func(ctx context.Context, e events.Event) error {
//	    return c.DeletePrefix(ctx, "jobs:")
//	}))
type ListenerFunc func(context.Context, Event) error

func (f ListenerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}
