package tmdb

import (
	"sync"
	"time"
)

// defaultCacheEntries bounds the number of cached detail responses.
const defaultCacheEntries = 1024

type cacheItem struct {
	value   any
	expires time.Time
}

// ttlCache holds detail responses for a short time so repeated page loads
// don't hit the upstream API. It never holds more than max items.
type ttlCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	items map[string]cacheItem
	now   func() time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:   ttl,
		max:   defaultCacheEntries,
		items: make(map[string]cacheItem),
		now:   time.Now,
	}
}

func (c *ttlCache) get(key string) (any, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(item.expires) {
		delete(c.items, key)
		return nil, false
	}
	return item.value, true
}

func (c *ttlCache) set(key string, value any) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.max {
		c.evict(now)
	}
	c.items[key] = cacheItem{value: value, expires: now.Add(c.ttl)}
}

// evict drops expired items, and the soonest-expiring one if that freed nothing.
func (c *ttlCache) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, it := range c.items {
		if !now.Before(it.expires) {
			delete(c.items, k)
			continue
		}
		if oldestKey == "" || it.expires.Before(oldest) {
			oldestKey, oldest = k, it.expires
		}
	}
	if len(c.items) >= c.max && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
