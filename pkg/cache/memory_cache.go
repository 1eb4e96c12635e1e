package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process Cache. Expired entries are dropped lazily on
// read and by Sweep.
type MemoryCache struct {
	prefix string
	mu     sync.RWMutex
	store  map[string]memoryEntry
	now    func() time.Time
}

// NewMemoryCache returns an empty memory cache.
func NewMemoryCache(prefix string) *MemoryCache {
	return &MemoryCache{
		prefix: prefix,
		store:  make(map[string]memoryEntry),
		now:    time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	key = m.prefix + key

	m.mu.RLock()
	e, ok := m.store[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if e.expired(m.now()) {
		m.mu.Lock()
		delete(m.store, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.store[m.prefix+key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.store, m.prefix+k)
	}
	return nil
}

func (m *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	full := m.prefix + prefix

	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.store {
		if strings.HasPrefix(k, full) {
			delete(m.store, k)
		}
	}
	return nil
}

func (m *MemoryCache) Flush(_ context.Context) error {
	m.mu.Lock()
	m.store = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many it removed.
func (m *MemoryCache) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.store {
		if e.expired(now) {
			delete(m.store, k)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *MemoryCache) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// Size returns the number of stored entries, expired ones included.
func (m *MemoryCache) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

func (m *MemoryCache) Stats() map[string]any {
	now := m.now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	valid := 0
	for _, e := range m.store {
		if !e.expired(now) {
			valid++
		}
	}
	return map[string]any{
		"driver":       "memory",
		"total_keys":   len(m.store),
		"valid_keys":   valid,
		"expired_keys": len(m.store) - valid,
	}
}

// Nop is a Cache that stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, ...string) error { return nil }
func (Nop) DeletePrefix(context.Context, string) error { return nil }
func (Nop) Flush(context.Context) error { return nil }
