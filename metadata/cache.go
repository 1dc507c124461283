package metadata

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Cache maps metadata endpoint URLs to Managers. For a given URL exactly one
// Manager ever exists: get-or-create happens in a single critical section,
// so racing first-time callers all observe the same instance. There is no
// eviction; the set of URLs is bounded by configuration.
type Cache struct {
	store   *jwk.Cache
	client  *http.Client
	refresh time.Duration

	mu       sync.Mutex
	managers map[string]*Manager
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient sets the client used for metadata and JWKS fetches.
func WithHTTPClient(c *http.Client) Option {
	return func(mc *Cache) { mc.client = c }
}

// WithRefreshInterval sets a fixed background refresh interval for key sets.
// Zero leaves the underlying store's schedule in place.
func WithRefreshInterval(d time.Duration) Option {
	return func(mc *Cache) { mc.refresh = d }
}

// NewCache constructs a Cache. ctx bounds the lifetime of the background
// refresher; pass a context that lives as long as the process serves
// traffic.
func NewCache(ctx context.Context, opts ...Option) *Cache {
	c := &Cache{
		store:    jwk.NewCache(ctx),
		client:   http.DefaultClient,
		managers: make(map[string]*Manager),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the Manager for url, creating it on first use.
func (c *Cache) Resolve(url string) *Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.managers[url]; ok {
		return m
	}
	m := newManager(c.store, c.client, url, c.refresh)
	c.managers[url] = m
	return m
}
