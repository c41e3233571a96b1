// Package memory implements an in-memory block cache backend.
package memory

import (
	"sync/atomic"

	"github.com/discochess/tablebase/internal/blockcache"
	"github.com/discochess/tablebase/internal/blockcache/cachestrategy"
	"github.com/discochess/tablebase/internal/stats"
)

// Compile-time check that Backend implements blockcache.Backend.
var _ blockcache.Backend = (*Backend)(nil)

// Backend is a thread-safe in-memory cache backend.
type Backend struct {
	strategy  cachestrategy.Strategy
	collector stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a new memory backend with the given eviction strategy.
// The collector is optional; if nil, a no-op collector is used.
func New(strategy cachestrategy.Strategy, collector stats.Collector) *Backend {
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Backend{
		strategy:  strategy,
		collector: collector,
	}
}

// Get retrieves a decoded block from the cache.
func (b *Backend) Get(key blockcache.Key) ([]byte, bool) {
	val, ok := b.strategy.Get(key)
	if ok {
		b.hits.Add(1)
		b.collector.IncCounter(stats.MetricCacheHits, 1)
		return val, true
	}
	b.misses.Add(1)
	b.collector.IncCounter(stats.MetricCacheMisses, 1)
	return nil, false
}

// Set stores a decoded block in the cache.
func (b *Backend) Set(key blockcache.Key, data []byte) {
	b.strategy.Add(key, data)
	b.collector.SetGauge(stats.MetricCacheSize, int64(b.strategy.Len()))
}

// Stats returns current cache statistics.
func (b *Backend) Stats() blockcache.Stats {
	return blockcache.Stats{
		Hits:   b.hits.Load(),
		Misses: b.misses.Load(),
		Size:   b.strategy.Len(),
	}
}
