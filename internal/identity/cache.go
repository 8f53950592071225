package identity

import (
	"context"
	"sync"
	"time"

	"client-portal/internal/domain"
)

// CachingProvider wraps a Provider with a time-bounded read-through cache.
// Entries are shared read-only across concurrent requests; staleness is
// self-healing on expiry, so a plain check-then-use under RWMutex is enough.
type CachingProvider struct {
	inner Provider
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	principal domain.Principal
	expires   time.Time
}

// NewCachingProvider wraps inner with a TTL cache. ttl <= 0 defaults to 5 minutes.
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachingProvider{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// GetPrincipal returns a cached principal when fresh, otherwise refreshes
// from the inner provider. Lookup failures are never cached.
func (c *CachingProvider) GetPrincipal(ctx context.Context, externalID string) (*domain.Principal, error) {
	c.mu.RLock()
	entry, ok := c.entries[externalID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		p := entry.principal
		return &p, nil
	}

	p, err := c.inner.GetPrincipal(ctx, externalID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[externalID] = cacheEntry{principal: *p, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	out := *p
	return &out, nil
}

// ListPrincipals always passes through; the admin listing is rare and must
// not serve stale rows.
func (c *CachingProvider) ListPrincipals(ctx context.Context) ([]domain.Principal, error) {
	return c.inner.ListPrincipals(ctx)
}

// Invalidate drops the cache entry for one principal. Webhook updates call
// this so role changes take effect without waiting out the TTL.
func (c *CachingProvider) Invalidate(externalID string) {
	c.mu.Lock()
	delete(c.entries, externalID)
	c.mu.Unlock()
}
