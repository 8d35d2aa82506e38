package cache

import (
	"sync"
	"time"
)

// Entry pairs a cached value with the instant it stops being valid.
type Entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Valid reports whether the entry is still usable at now. The comparison is
// strict: an entry expiring exactly at now is already gone.
func (e Entry[V]) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly so tests can move time forward.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Cache is a time based cache safe for concurrent use. There is no size bound
// and no eviction order: entries live until their TTL elapses or they are
// removed. Concurrent Puts for the same key race and the last one wins.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[Key]Entry[V]
	now     func() time.Time

	janitorMu sync.Mutex
	stopChan  chan struct{}
	stopped   chan struct{}
}

// New constructs an empty cache.
func New[V any](opts ...Option) *Cache[V] {
	cfg := options{now: time.Now}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return &Cache[V]{
		entries: make(map[Key]Entry[V]),
		now:     cfg.now,
	}
}

// Get returns the value stored under key if it has not expired.
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !entry.Valid(c.now()) {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Put stores value under key for ttl. A non-positive ttl stores nothing.
func (c *Cache[V]) Put(key Key, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	entry := Entry[V]{
		Value:     value,
		ExpiresAt: c.now().Add(ttl),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// TTL returns the time left before key expires, or -1 when the key is absent
// or already expired.
func (c *Cache[V]) TTL(key Key) time.Duration {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	now := c.now()
	if !ok || !entry.Valid(now) {
		return -1
	}
	return entry.ExpiresAt.Sub(now)
}

// Remove deletes key. Removing a missing key is a no-op.
func (c *Cache[V]) Remove(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[Key]Entry[V])
	c.mu.Unlock()
}

// Len reports the number of physically stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes expired entries and returns how many were dropped.
func (c *Cache[V]) Purge() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.Valid(now) {
			continue
		}
		delete(c.entries, key)
		removed++
	}
	return removed
}
