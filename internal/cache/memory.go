package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/verifier/internal/metrics"
)

// MemoryCache is the in-process verdict tier. Entries expire after their
// TTL; once maxEntries live entries are held, new keys are dropped until
// expiry frees room. Existing keys can always be refreshed.
type MemoryCache struct {
	items      *gocache.Cache
	maxEntries int
}

// NewMemoryCache returns a memory tier with the given default TTL.
// maxEntries <= 0 disables the bound.
func NewMemoryCache(defaultTTL time.Duration, maxEntries int) *MemoryCache {
	sweep := defaultTTL / 2
	if sweep < time.Minute {
		sweep = time.Minute
	}
	items := gocache.New(defaultTTL, sweep)
	items.OnEvicted(func(string, interface{}) {
		metrics.LivenessCacheEvictions.Inc()
	})
	return &MemoryCache{items: items, maxEntries: maxEntries}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	data, ok := val.([]byte)
	return data, ok
}

// Set stores value under key; a zero ttl uses the tier default
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	if c.full() {
		if _, exists := c.items.Get(key); !exists {
			return nil
		}
	}
	c.items.Set(key, value, ttl)
	return nil
}

func (c *MemoryCache) full() bool {
	if c.maxEntries <= 0 || c.items.ItemCount() < c.maxEntries {
		return false
	}
	c.items.DeleteExpired()
	return c.items.ItemCount() >= c.maxEntries
}

func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len counts held entries, including expired ones not yet swept
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
