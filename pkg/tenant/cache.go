package tenant

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Cache stores resolved tenants keyed by subdomain to keep hot lookups off
// the database. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*Tenant, bool)
	Set(ctx context.Context, key string, t *Tenant, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

// cleanupInterval controls how often expired entries are swept.
const cleanupInterval = time.Minute

type cacheItem struct {
	tenant    *Tenant
	expiresAt time.Time
}

// inMemoryCache is the default process-local cache implementation.
type inMemoryCache struct {
	mu     sync.RWMutex
	items  map[string]cacheItem
	stop   chan struct{}
	closed bool
}

// NewInMemoryCache creates an in-memory cache with background cleanup of
// expired entries.
func NewInMemoryCache() Cache {
	c := &inMemoryCache{
		items: make(map[string]cacheItem),
		stop:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *inMemoryCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.tenant, true
}

func (c *inMemoryCache) Set(ctx context.Context, key string, t *Tenant, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.items[key] = cacheItem{tenant: t, expiresAt: time.Now().Add(ttl)}
}

func (c *inMemoryCache) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *inMemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.stop)
	}
	return nil
}

func (c *inMemoryCache) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// cachingProvider wraps a Provider with read-through caching of the
// subdomain-to-tenant mapping. Only successful lookups are cached;
// ErrTenantNotFound is never cached so a freshly provisioned shop becomes
// reachable immediately. The active flag is never trusted from the cache:
// deactivating a shop must block it on the next request, so every cache hit
// re-verifies activity against the provider.
type cachingProvider struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
}

func (p *cachingProvider) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	if t, ok := p.cache.Get(ctx, subdomain); ok {
		return p.recheckActive(ctx, subdomain, t)
	}

	t, err := p.provider.GetBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	p.cache.Set(ctx, subdomain, t, p.ttl)
	return t, nil
}

// recheckActive refreshes the active flag of a cached tenant. Providers
// that support ActivityChecker pay only a primary-key flag lookup; all
// others fall back to a full re-fetch, which makes the cache a no-op for
// them rather than a staleness window.
func (p *cachingProvider) recheckActive(ctx context.Context, subdomain string, t *Tenant) (*Tenant, error) {
	checker, ok := p.provider.(ActivityChecker)
	if !ok {
		fresh, err := p.provider.GetBySubdomain(ctx, subdomain)
		if err != nil {
			if errors.Is(err, ErrTenantNotFound) {
				p.cache.Delete(ctx, subdomain)
			}
			return nil, err
		}
		p.cache.Set(ctx, subdomain, fresh, p.ttl)
		return fresh, nil
	}

	active, err := checker.IsActive(ctx, t.ID)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			p.cache.Delete(ctx, subdomain)
		}
		return nil, err
	}
	if active == t.Active {
		return t, nil
	}

	fresh := *t
	fresh.Active = active
	p.cache.Set(ctx, subdomain, &fresh, p.ttl)
	return &fresh, nil
}
