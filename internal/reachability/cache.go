// Package reachability discovers and memoizes which containers expose a
// reachable HTTP endpoint. Fast-path lookups never touch the network; probes
// run on a bounded background worker pool and only ever write cache entries.
package reachability

import (
	"sync"
	"time"
)

// entry records the outcome of the most recent probe for one container.
// An empty URL means "checked, unreachable".
type entry struct {
	url        string
	observedAt time.Time
}

// Cache maps container identity to its last known reachable HTTP URL.
// Entries older than the TTL are ignored by Lookup but not deleted; the next
// successful probe simply supersedes them.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	now func() time.Time // test hook
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Lookup is the non-blocking fast path. It returns the cached value and true
// only when a fresh entry exists; a fresh negative entry returns ("", true).
// A stale or missing entry returns ("", false) without any network call.
func (c *Cache) Lookup(containerID string) (url string, ok bool) {
	c.mu.RLock()
	e, found := c.entries[containerID]
	c.mu.RUnlock()
	if !found {
		return "", false
	}
	if c.now().Sub(e.observedAt) > c.ttl {
		return "", false
	}
	return e.url, true
}

// Store records a probe result for a container. url == "" records the
// negative outcome so the fast path does not re-trigger redundant probes
// before the TTL expires.
func (c *Cache) Store(containerID, url string) {
	c.mu.Lock()
	c.entries[containerID] = entry{url: url, observedAt: c.now()}
	c.mu.Unlock()
}
