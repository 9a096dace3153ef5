// Package conncache memoizes one live runtime client per Docker endpoint so
// repeated requests do not re-handshake. Entries are validated with a cheap
// ping on every hit and evicted when the ping fails or when the server
// configuration changes.
package conncache

import (
	"context"
	"sync"
	"time"
)

// Client is the slice of a runtime client the cache needs.
type Client interface {
	Ping(ctx context.Context) error
	Close() error
}

// Dialer establishes a fresh client for an endpoint. It must return an error
// (and no client) when the endpoint cannot be reached within ctx.
type Dialer[C Client] func(ctx context.Context, endpoint string) (C, error)

type Cache[C Client] struct {
	mu      sync.Mutex
	clients map[string]C
	dial    Dialer[C]
	timeout time.Duration
}

func New[C Client](dial Dialer[C], timeout time.Duration) *Cache[C] {
	return &Cache[C]{
		clients: make(map[string]C),
		dial:    dial,
		timeout: timeout,
	}
}

// Get returns a live client for endpoint. A cached entry is ping-validated
// first; on ping failure it is evicted and a fresh connection is established.
// Fresh connections are bounded by the cache's connect timeout and are stored
// only when useCache is true. Nothing is cached on failure.
//
// With useCache false the cache never tracks the returned client and the
// caller must Close it.
func (c *Cache[C]) Get(ctx context.Context, endpoint string, useCache bool) (C, error) {
	var zero C

	if useCache {
		c.mu.Lock()
		cached, ok := c.clients[endpoint]
		c.mu.Unlock()
		if ok {
			pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
			err := cached.Ping(pingCtx)
			cancel()
			if err == nil {
				return cached, nil
			}
			c.evict(endpoint, cached)
		}
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := c.dial(dialCtx, endpoint)
	if err != nil {
		return zero, err
	}

	if useCache {
		c.mu.Lock()
		if old, ok := c.clients[endpoint]; ok {
			old.Close()
		}
		c.clients[endpoint] = client
		c.mu.Unlock()
	}
	return client, nil
}

// evict removes endpoint's entry if it still holds the stale client.
func (c *Cache[C]) evict(endpoint string, stale C) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.clients[endpoint]; ok && any(cached) == any(stale) {
		delete(c.clients, endpoint)
		stale.Close()
	}
}

// Invalidate drops every cached client. Any mutation to the server
// configuration must call this: a previously valid endpoint mapping may now
// be wrong.
func (c *Cache[C]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for endpoint, client := range c.clients {
		client.Close()
		delete(c.clients, endpoint)
	}
}

// Len reports the number of cached endpoints.
func (c *Cache[C]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}
