// -----------------------------------------------------------------------------
// Event Dispatcher
// -----------------------------------------------------------------------------
// Routes events to listeners registered for their exact name, for their
// entity wildcard ("job.*") or for everything ("*").
//
//	d := events.NewDispatcher(logger)
//	d.Listen("company.*", invalidator)
//	d.ListenAsync("*", auditLog)
//
//	d.Dispatch(ctx, events.New(events.CompanyCreated, c.Handle, c))
//
// Listen handlers run in the caller's goroutine. ListenAsync handlers run in
// the background; ShutdownWithTimeout waits for those to finish.
// -----------------------------------------------------------------------------
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrShutdown is returned for background listeners once the dispatcher is
// shut down.
var ErrShutdown = errors.New("events: dispatcher is shut down")

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	logger    zerolog.Logger

	// closed and wg.Add are both guarded by mu, so no background handler
	// can start once ShutdownWithTimeout has begun waiting.
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher returns a dispatcher with no listeners.
//
// Call ShutdownWithTimeout when done so background listeners complete:
//
//	defer d.ShutdownWithTimeout(5 * time.Second)
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string][]Listener),
		logger:    logger.With().Str("component", "events").Logger(),
	}
}

// Listen registers listener for pattern: an exact name, "<entity>.*" or "*".
func (d *Dispatcher) Listen(pattern string, listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners[pattern] = append(d.listeners[pattern], listener)
	d.logger.Debug().Str("pattern", pattern).Msg("listener registered")
}

// ListenAsync registers listener to run in its own goroutine with a
// background context, so it outlives the request that raised the event.
// Its errors are logged, never returned from Dispatch.
func (d *Dispatcher) ListenAsync(pattern string, listener Listener) {
	d.Listen(pattern, &background{d: d, next: listener})
}

// Subscribe registers one listener for several patterns.
func (d *Dispatcher) Subscribe(patterns []string, listener Listener) {
	for _, p := range patterns {
		d.Listen(p, listener)
	}
}

// matching returns the listeners for name in registration-group order:
// exact, entity wildcard, global wildcard.
func (d *Dispatcher) matching(name string) []Listener {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Listener
	out = append(out, d.listeners[name]...)
	if entity := Entity(name); entity != name {
		out = append(out, d.listeners[entity+".*"]...)
	}
	return append(out, d.listeners["*"]...)
}

// Dispatch runs every matching listener in order. A failing listener does
// not stop the others; all errors are joined into the result.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	listeners := d.matching(event.Name())
	if len(listeners) == 0 {
		d.logger.Debug().Str("event", event.Name()).Msg("no listeners")
		return nil
	}

	var errs []error
	for _, l := range listeners {
		if err := l.Handle(ctx, event); err != nil {
			d.logger.Warn().Err(err).
				Str("event", event.Name()).
				Str("subject", event.Subject()).
				Msg("listener failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// spawn runs listener for event in a tracked goroutine.
func (d *Dispatcher) spawn(listener Listener, event Event) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrShutdown
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		if err := listener.Handle(context.Background(), event); err != nil {
			d.logger.Warn().Err(err).
				Str("event", event.Name()).
				Str("subject", event.Subject()).
				Msg("background listener failed")
		}
	}()
	return nil
}

// ShutdownWithTimeout stops background listeners from starting and waits up
// to timeout for the running ones.
func (d *Dispatcher) ShutdownWithTimeout(timeout time.Duration) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("events: shutdown timed out after %s", timeout)
	}
}

// background hands events to its dispatcher's goroutine pool.
type background struct {
	d    *Dispatcher
	next Listener
}

func (b *background) Handle(_ context.Context, e Event) error {
	return b.d.spawn(b.next, e)
}
