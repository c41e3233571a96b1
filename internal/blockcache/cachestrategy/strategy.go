// Package cachestrategy defines cache eviction strategy interfaces.
package cachestrategy

import "github.com/discochess/tablebase/internal/blockcache"

// Strategy defines the interface for cache eviction strategies.
type Strategy interface {
	Get(key blockcache.Key) ([]byte, bool)
	Add(key blockcache.Key, value []byte) bool
	Len() int
}
