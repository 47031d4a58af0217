package ath

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// DefaultFreshness is how long a derived series is reused across runs
const DefaultFreshness = 18 * time.Hour

// maxCachedTickers bounds the cache; the least recently used ticker is evicted first
const maxCachedTickers = 512

// fingerprint identifies the price series a cached entry was derived from.
// Any appended or rewritten close changes it.
type fingerprint struct {
	length    int
	first     time.Time
	last      time.Time
	lastClose string
}

func fingerprintOf(points []domain.PricePoint) fingerprint {
	if len(points) == 0 {
		return fingerprint{}
	}
	return fingerprint{
		length:    len(points),
		first:     points[0].Date,
		last:      points[len(points)-1].Date,
		lastClose: points[len(points)-1].Close.String(),
	}
}

type cacheEntry struct {
	series *Series
	source fingerprint
}

// Cache shares derived series across simulation runs.
// An entry is served only while it is fresh and was built from the same source series.
// A nil *Cache is valid and never hits.
type Cache struct {
	entries *expirable.LRU[string, cacheEntry]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCache creates a cache whose entries expire after ttl
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: expirable.NewLRU[string, cacheEntry](maxCachedTickers, nil, ttl),
	}
}

// Get returns the cached series for ticker when it is fresh and matches source
func (c *Cache) Get(ticker string, source []domain.PricePoint) (*Series, bool) {
	if c == nil {
		return nil, false
	}

	entry, ok := c.entries.Get(ticker)
	if !ok || entry.source != fingerprintOf(source) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.series, true
}

// Put stores the series derived from source
func (c *Cache) Put(ticker string, source []domain.PricePoint, series *Series) {
	if c == nil {
		return
	}
	c.entries.Add(ticker, cacheEntry{series: series, source: fingerprintOf(source)})
}

// Invalidate drops the cached series of ticker, typically after a price refresh
func (c *Cache) Invalidate(ticker string) {
	if c == nil {
		return
	}
	c.entries.Remove(ticker)
}

// Stats returns the hit and miss counts since creation
func (c *Cache) Stats() (hits, misses int) {
	if c == nil {
		return 0, 0
	}
	return int(c.hits.Load()), int(c.misses.Load())
}
