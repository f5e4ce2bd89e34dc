package media

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultCacheSize = 1024
	defaultCacheTTL  = 10 * time.Minute
)

// mediaTypeCache remembers the declared media type of served files.
// A generated file name is bound once and never rebound, so an entry can
// only go stale by removal, which invalidates it.
type mediaTypeCache struct {
	lru *expirable.LRU[string, string]
}

func newMediaTypeCache(size int, ttl time.Duration) *mediaTypeCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &mediaTypeCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *mediaTypeCache) get(fileName string) (string, bool) {
	mediaType, ok := c.lru.Get(fileName)
	if ok {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
	} else {
		cacheLookupsTotal.WithLabelValues("miss").Inc()
	}
	return mediaType, ok
}

func (c *mediaTypeCache) set(fileName, mediaType string) {
	c.lru.Add(fileName, mediaType)
}

func (c *mediaTypeCache) invalidate(fileName string) {
	c.lru.Remove(fileName)
}
