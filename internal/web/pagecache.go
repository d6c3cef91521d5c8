package web

import (
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
)

type (
	// PageCache keeps rendered public pages for logged-out visitors.
	// Entries expire quickly on their own; any mutation of the content
	// behind them drops the whole cache instead of chasing keys.
	PageCache struct {
		cache *bigcache.BigCache
	}
)

func NewPageCache(ttl time.Duration) *PageCache {
	cache, _ := bigcache.NewBigCache(bigcache.DefaultConfig(ttl))
	return &PageCache{cache: cache}
}

func pageKey(path, rawQuery string) string {
	return strconv.FormatUint(xxhash.Sum64String(path+"?"+rawQuery), 16)
}

func (p *PageCache) Get(path, rawQuery string) ([]byte, bool) {
	buf, err := p.cache.Get(pageKey(path, rawQuery))
	if err != nil {
		pageCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	pageCacheLookups.WithLabelValues("hit").Inc()
	return buf, true
}

func (p *PageCache) Set(path, rawQuery string, body []byte) {
	p.cache.Set(pageKey(path, rawQuery), body)
}

func (p *PageCache) Reset() {
	p.cache.Reset()
}
