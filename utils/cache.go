package utils

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CountCache holds listing total-counts for a short TTL so paginated
// browsing doesn't re-run CountDocuments on every page flip.
type CountCache struct {
	c *gocache.Cache
}

func NewCountCache(ttl time.Duration) *CountCache {
	return &CountCache{c: gocache.New(ttl, 2*ttl)}
}

func (cc *CountCache) Get(key string) (int64, bool) {
	v, ok := cc.c.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

func (cc *CountCache) Set(key string, n int64) {
	cc.c.SetDefault(key, n)
}

// Flush clears all cached counts; called after writes that change totals.
func (cc *CountCache) Flush() {
	cc.c.Flush()
}
