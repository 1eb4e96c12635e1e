// -----------------------------------------------------------------------------
// Service Container
// -----------------------------------------------------------------------------
// A small typed container for start-up wiring. Each type gets one lazy
// provider; the first Resolve builds it, later calls return the same value.
//
//	c := container.New()
//	container.Provide(c, func(c *container.Container) (*sqlx.DB, error) {
//	    return database.Connect(ctx, dbCfg, logger)
//	})
//	container.Provide(c, func(c *container.Container) (*repositories.JobRepository, error) {
//	    db, err := container.Resolve[*sqlx.DB](c)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return repositories.NewJobRepository(db), nil
//	})
//
// Resolution is meant to run from one goroutine during start-up. Values it
// returns are shared and may be used concurrently afterwards.
// -----------------------------------------------------------------------------

package container

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNotRegistered is returned when no provider exists for a type.
var ErrNotRegistered = errors.New("container: no provider registered")

// ErrCycle is returned when providers depend on each other in a loop.
var ErrCycle = errors.New("container: dependency cycle")

type Container struct {
	mu        sync.Mutex
	factories map[reflect.Type]func(*Container) (any, error)
	instances map[reflect.Type]any
	building  map[reflect.Type]bool
	closers   []func() error
}

func New() *Container {
	return &Container{
		factories: make(map[reflect.Type]func(*Container) (any, error)),
		instances: make(map[reflect.Type]any),
		building:  make(map[reflect.Type]bool),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Provide registers factory as the provider of T, replacing any earlier one.
func Provide[T any](c *Container, factory func(*Container) (T, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := typeOf[T]()
	c.factories[t] = func(c *Container) (any, error) {
		return factory(c)
	}
	delete(c.instances, t)
}

// Instance registers an already built value.
func Instance[T any](c *Container, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[typeOf[T]()] = v
}

// Resolve returns the T built by its provider.
func Resolve[T any](c *Container) (T, error) {
	var zero T
	t := typeOf[T]()

	c.mu.Lock()
	if v, ok := c.instances[t]; ok {
		c.mu.Unlock()
		return v.(T), nil
	}
	factory, ok := c.factories[t]
	if !ok {
		c.mu.Unlock()
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}
	if c.building[t] {
		c.mu.Unlock()
		return zero, fmt.Errorf("%w at %s", ErrCycle, t)
	}
	c.building[t] = true
	c.mu.Unlock()

	v, err := factory(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.building, t)
	if err != nil {
		return zero, fmt.Errorf("container: building %s: %w", t, err)
	}
	c.instances[t] = v
	return v.(T), nil
}

// OnClose registers fn to run on Close. Closers run in reverse order of
// registration, so a provider's closer runs before those of its
// dependencies.
func (c *Container) OnClose(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, fn)
}

// Close runs every closer and joins their errors.
func (c *Container) Close() error {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
