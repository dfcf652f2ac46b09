package loader

import (
	"sync"
	"time"
)

type cacheEntry struct {
	module  Loaded
	expires time.Time
}

// moduleCache keeps successfully fetched remote modules for a bounded time.
// Failures are never cached so a recovered host is used on the next build.
type moduleCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newModuleCache(ttl time.Duration) *moduleCache {
	return &moduleCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *moduleCache) get(url string) (Loaded, bool) {
	if c.ttl <= 0 {
		return Loaded{}, false
	}

	c.mu.RLock()
	e, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok {
		return Loaded{}, false
	}
	if c.now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, url)
		c.mu.Unlock()
		return Loaded{}, false
	}
	return e.module, true
}

func (c *moduleCache) put(url string, m Loaded) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = cacheEntry{module: m, expires: c.now().Add(c.ttl)}
}

func (c *moduleCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
