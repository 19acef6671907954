// Package cache provides the short-lived read cache placed in front of the
// document store.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long a fetched document may be served from memory.
const DefaultTTL = 10 * time.Second

// Option configures a Blob cache.
type Option func(*Blob)

// WithClock sets a custom clock function (for testing).
func WithClock(fn func() time.Time) Option {
	return func(c *Blob) { c.now = fn }
}

// Blob caches one byte payload for a fixed TTL. Get hands out copies so that
// callers never share the cached bytes.
type Blob struct {
	mu       sync.Mutex
	ttl      time.Duration
	data     []byte
	storedAt time.Time
	valid    bool
	gen      uint64
	now      func() time.Time
}

// New creates a cache with the given TTL. A TTL <= 0 disables caching.
func New(ttl time.Duration, opts ...Option) *Blob {
	c := &Blob{ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the configured time to live.
func (c *Blob) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached payload if it is younger than the TTL.
func (c *Blob) Get() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid || c.ttl <= 0 {
		return nil, false
	}
	if c.now().Sub(c.storedAt) >= c.ttl {
		c.valid = false
		c.data = nil
		return nil, false
	}
	return append([]byte(nil), c.data...), true
}

// Set stores a copy of data and restarts the TTL.
func (c *Blob) Set(data []byte) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = append([]byte(nil), data...)
	c.storedAt = c.now()
	c.valid = true
}

// Generation returns a counter bumped by every Invalidate. Pair it with
// SetIfGeneration to avoid caching a read that raced with a write.
func (c *Blob) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfGeneration stores data only if no Invalidate happened since gen was
// observed. It reports whether the payload was stored.
func (c *Blob) SetIfGeneration(gen uint64, data []byte) bool {
	if c.ttl <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.data = append([]byte(nil), data...)
	c.storedAt = c.now()
	c.valid = true
	return true
}

// Invalidate drops the cached payload so the next Get misses.
func (c *Blob) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.data = nil
	c.gen++
}
