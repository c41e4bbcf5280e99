package cache

import (
	"fmt"

	"github.com/couchcryptid/covid-case-etl/internal/domain"
	"github.com/couchcryptid/covid-case-etl/internal/observability"
)

// Builder produces the dashboard view of one selection.
type Builder func(d *domain.Dataset, sel domain.Selection) domain.View

// CachedViews wraps a Builder with an in-memory LRU cache keyed by selection
// and dataset load time, so a reloaded dataset never serves stale views.
type CachedViews struct {
	build   Builder
	cache   *LRU[string, domain.View]
	metrics *observability.Metrics
}

// NewCachedViews creates a cache decorator around a view builder.
func NewCachedViews(build Builder, maxEntries int, metrics *observability.Metrics) *CachedViews {
	return &CachedViews{
		build:   build,
		cache:   NewLRU[string, domain.View](maxEntries),
		metrics: metrics,
	}
}

// View returns the cached view of sel, building it on a miss.
func (c *CachedViews) View(d *domain.Dataset, sel domain.Selection) domain.View {
	key := fmt.Sprintf("%s|%d", sel, d.LoadedAt().UnixNano())
	if v, ok := c.cache.Get(key); ok {
		c.record("hit")
		return v
	}
	c.record("miss")
	v := c.build(d, sel)
	c.cache.Put(key, v)
	return v
}

// Len reports how many views are cached.
func (c *CachedViews) Len() int {
	return c.cache.Len()
}

func (c *CachedViews) record(result string) {
	if c.metrics != nil {
		c.metrics.ViewCache.WithLabelValues(result).Inc()
	}
}
