package dashboard

import (
	"github.com/couchcryptid/water-level-dashboard-service/internal/cache"
	"github.com/couchcryptid/water-level-dashboard-service/internal/domain"
	"github.com/couchcryptid/water-level-dashboard-service/internal/observability"
	"github.com/couchcryptid/water-level-dashboard-service/internal/store"
)

type correlationKey struct {
	version uint64
	station domain.StationID
}

// Correlator memoizes domain.Correlate per (station, readings snapshot).
// Replacing the snapshot bumps its version, so stale entries are never hit.
type Correlator struct {
	cache   *cache.LRU[correlationKey, []domain.Reading]
	metrics *observability.Metrics
}

// NewCorrelator creates a Correlator remembering up to size series.
func NewCorrelator(size int, metrics *observability.Metrics) *Correlator {
	return &Correlator{
		cache:   cache.NewLRU[correlationKey, []domain.Reading](size),
		metrics: metrics,
	}
}

// Series returns the ordered readings of id. The returned slice is shared
// with the cache and must not be modified.
func (c *Correlator) Series(snap store.Snapshot[domain.Reading], id domain.StationID) []domain.Reading {
	key := correlationKey{version: snap.Version, station: id}
	if series, ok := c.cache.Get(key); ok {
		c.metrics.CorrelationCache.WithLabelValues("hit").Inc()
		return series
	}
	c.metrics.CorrelationCache.WithLabelValues("miss").Inc()

	series := domain.Correlate(snap.Items, id)
	c.cache.Put(key, series)
	return series
}
