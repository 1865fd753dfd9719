package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// minSweep is the shortest interval between expiry sweeps.
const minSweep = time.Minute

// InMemoryCache keeps results in process memory. Entries expire after the
// TTL given at construction; a non-positive TTL keeps them for the life of
// the process.
type InMemoryCache struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewInMemoryCache returns a memory cache whose entries live ttlSeconds.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	if ttlSeconds <= 0 {
		return &InMemoryCache{items: gocache.New(gocache.NoExpiration, 0)}
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	sweep := ttl
	if sweep < minSweep {
		sweep = minSweep
	}
	return &InMemoryCache{items: gocache.New(ttl, sweep), ttl: ttl}
}

// Get returns a live entry. Expired entries are misses even before the
// sweep removes them.
func (c *InMemoryCache) Get(key string) (string, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores value under key, replacing any entry and restarting its TTL.
func (c *InMemoryCache) Set(key string, value string) error {
	c.items.SetDefault(key, value)
	return nil
}

// Delete drops key.
func (c *InMemoryCache) Delete(key string) {
	c.items.Delete(key)
}

// Len counts the live entries.
func (c *InMemoryCache) Len() int {
	return len(c.items.Items())
}

// TTL is the entry lifetime, zero when entries never expire.
func (c *InMemoryCache) TTL() time.Duration {
	return c.ttl
}

var _ ResultCache = (*InMemoryCache)(nil)
