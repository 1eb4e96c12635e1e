// -----------------------------------------------------------------------------
// Cache Package
// -----------------------------------------------------------------------------
// A small byte-oriented cache contract with three drivers:
//
//   - memory: in-process map with TTLs, for single-instance deployments
//   - redis:  shared cache over go-redis
//   - none:   disables caching without touching call sites
//
// Values are JSON-encoded by Remember, so any driver returns the same typed
// result. Keys are namespaced (see Key) so one entity's entries can be
// dropped with DeletePrefix after a write.
// -----------------------------------------------------------------------------

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Cache stores opaque values with a TTL.
type Cache interface {
	// Get returns the value and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Flush removes every key owned by this cache.
	Flush(ctx context.Context) error
}

// Stats is implemented by drivers that can report their state.
type Stats interface {
	Stats() map[string]any
}

// Remember returns the cached value under key, or calls fn, caches its
// result for ttl and returns it.
//
// A cache read or write failure never fails the call: fn's result is still
// returned, and the write error is dropped.
//
// Example:
//
//	companies, err := cache.Remember(ctx, c, key, time.Minute, func() ([]models.Company, error) {
//	    return repo.FindAll(ctx, filters)
//	})
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if raw, ok, err := c.Get(ctx, key); err == nil && ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	value, err := fn()
	if err != nil {
		return value, err
	}

	if raw, err := json.Marshal(value); err == nil {
		_ = c.Set(ctx, key, raw, ttl)
	}
	return value, nil
}

// New builds the driver named by driver: "memory", "redis" or "none".
func New(driver string, opts Options) (Cache, error) {
	switch driver {
	case "memory":
		return NewMemoryCache(opts.Prefix), nil
	case "redis":
		if opts.Redis == nil {
			return nil, fmt.Errorf("cache: redis driver needs a client")
		}
		return NewRedisCache(opts.Redis, opts.Prefix), nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", driver)
	}
}
