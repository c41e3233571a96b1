// Package blockcache caches decoded table blocks.
package blockcache

import "fmt"

// Key identifies a decoded block within a table.
type Key struct {
	// Table is the identifier assigned to an opened table file.
	Table uint64
	// Block is the block number within the table.
	Block uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.Table, k.Block)
}

// Backend defines the interface for cache storage backends.
// Implementations handle storage and eviction strategy.
type Backend interface {
	// Get retrieves a decoded block. Returns nil, false if not found.
	Get(key Key) ([]byte, bool)

	// Set stores a decoded block. Callers must not modify data afterwards.
	Set(key Key, data []byte)

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of blocks
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}
