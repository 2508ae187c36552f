package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type cacheKeyType struct{}

var cacheKey cacheKeyType

// permissionCache memoizes resolved permission sets for the lifetime of
// one request. It is installed by middleware; resolution falls through
// to the database when absent.
type permissionCache struct {
	mu      sync.Mutex
	entries map[cacheEntry][]string
}

type cacheEntry struct {
	tenantID uuid.UUID
	userID   uuid.UUID
}

// WithRequestCache returns a context carrying a fresh permission cache.
func WithRequestCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheKey, &permissionCache{
		entries: make(map[cacheEntry][]string),
	})
}

func cacheFrom(ctx context.Context) *permissionCache {
	cache, _ := ctx.Value(cacheKey).(*permissionCache)
	return cache
}

func (c *permissionCache) get(tenantID, userID uuid.UUID) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	perms, ok := c.entries[cacheEntry{tenantID, userID}]
	return perms, ok
}

func (c *permissionCache) put(tenantID, userID uuid.UUID, perms []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheEntry{tenantID, userID}] = perms
}
