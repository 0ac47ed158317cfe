// Package cache provides a read-through cache with single-flight population.
// Reference tables are append-only per version, so entries never expire; the
// guarantee callers need is that concurrent misses for one key trigger at
// most one population.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Populate loads the value for a missing key.
type Populate[V any] func(ctx context.Context) (V, error)

// Cache is a concurrency-safe get-or-populate map keyed by string.
// Populated values are immutable and shared across requests.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	group   singleflight.Group
}

// New returns an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]V)}
}

// GetOrPopulate returns the cached value for key, invoking populate at most
// once per key across concurrent callers. A failed population caches nothing,
// so the next caller retries.
func (c *Cache[V]) GetOrPopulate(ctx context.Context, key string, populate Populate[V]) (V, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have populated
		// between the read miss and the Do.
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := populate(ctx)
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Peek reports whether key is already populated, without populating.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Len returns the number of populated entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
