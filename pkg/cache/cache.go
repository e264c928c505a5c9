// Package cache provides a small TTL cache for collaborator responses.
package cache

import (
	"sync"
	"time"
)

// TTLCache is a string-keyed cache whose entries expire after a fixed window.
// Expired entries are purged lazily on each lookup.
type TTLCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// New creates a TTLCache with the given window.
func New[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock, for tests.
func (c *TTLCache[V]) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the cached value if present and fresh.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeLocked()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value under the key, replacing any previous entry.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// Len returns the number of live entries.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()
	return len(c.entries)
}

func (c *TTLCache[V]) purgeLocked() {
	if c.ttl <= 0 {
		return
	}
	deadline := c.now().Add(-c.ttl)
	for k, e := range c.entries {
		if e.storedAt.Before(deadline) {
			delete(c.entries, k)
		}
	}
}
