// Package cache memoizes conditioned SELECT results.
//
// Entries are never invalidated or expired: once a key is stored, later
// lookups return the stored value even if the underlying table has changed.
package cache

import (
	"log/slog"
	"sync"
)

// Key identifies a conditioned query.
type Key struct {
	Table  string
	Column string
	Value  string
}

// Stats reports cache hits and misses.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Cache maps query keys to computed values.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[Key]V
	hits    int64
	misses  int64
}

// New returns an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[Key]V)}
}

// GetOrCompute returns the value stored for key, or calls compute and stores its
// result. The bool reports a hit. Errors from compute are returned and not stored.
//
// compute runs with the lock held, so it must not call back into the cache.
func (c *Cache[V]) GetOrCompute(key Key, compute func() (V, error)) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		c.hits++
		slog.Debug("cache hit", "table", key.Table, "column", key.Column, "value", key.Value)
		return v, true, nil
	}

	c.misses++
	v, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}
	c.entries[key] = v
	slog.Debug("cache miss", "table", key.Table, "column", key.Column, "value", key.Value)
	return v, false, nil
}

// Len returns the number of stored entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}
