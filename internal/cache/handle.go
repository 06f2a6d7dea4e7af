package cache

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Key identifies one model handle. Speech models vary by language and
// device; the converter only by device.
type Key struct {
	Kind     string
	Language string
	Device   string
}

// Handle is anything the cache can hold and close.
type Handle interface {
	Close() error
}

// Stats reports cache effectiveness.
type Stats struct {
	Entries int
	Hits    int
	Misses  int
}

// HandleCache keeps constructed model handles alive between pipeline runs.
// The cache owns the handles it holds: eviction closes them.
type HandleCache struct {
	mu      sync.Mutex
	entries map[Key]Handle
	hits    int
	misses  int
}

// NewHandleCache returns an empty handle cache.
func NewHandleCache() *HandleCache {
	return &HandleCache{entries: make(map[Key]Handle)}
}

// Get returns the cached handle for key, if present.
func (c *HandleCache) Get(key Key) (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.entries[key]
	if ok {
		c.hits++
		log.Debug("Handle cache hit", "kind", key.Kind, "language", key.Language, "device", key.Device)
	} else {
		c.misses++
	}
	return h, ok
}

// Put stores a handle under key. A displaced handle is closed.
func (c *HandleCache) Put(key Key, h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok && old != h {
		closeQuiet(key, old)
	}
	c.entries[key] = h
}

// Invalidate removes and closes the handle for key. Missing keys are not an
// error.
func (c *HandleCache) Invalidate(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.entries[key]
	if !ok {
		return nil
	}
	delete(c.entries, key)
	return h.Close()
}

// Clear removes and closes every handle. The first close error is returned;
// clearing always completes.
func (c *HandleCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for key, h := range c.entries {
		if err := h.Close(); err != nil && first == nil {
			first = err
		}
		delete(c.entries, key)
	}
	return first
}

// Stats returns a snapshot of the cache counters.
func (c *HandleCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

func closeQuiet(key Key, h Handle) {
	if err := h.Close(); err != nil {
		log.Warn("Closing displaced handle failed", "kind", key.Kind, "error", err)
	}
}
