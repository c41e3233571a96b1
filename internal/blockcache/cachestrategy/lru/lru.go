// Package lru implements an LRU cache eviction strategy.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/tablebase/internal/blockcache"
	"github.com/discochess/tablebase/internal/blockcache/cachestrategy"
)

// Compile-time check that Strategy implements cachestrategy.Strategy.
var _ cachestrategy.Strategy = (*Strategy)(nil)

// Strategy implements LRU eviction over a fixed number of blocks.
type Strategy struct {
	cache *lru.Cache[blockcache.Key, []byte]
}

// New creates a new LRU strategy holding up to capacity blocks.
func New(capacity int) (*Strategy, error) {
	c, err := lru.New[blockcache.Key, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &Strategy{cache: c}, nil
}

// Get retrieves a block and marks it recently used.
func (s *Strategy) Get(key blockcache.Key) ([]byte, bool) {
	return s.cache.Get(key)
}

// Add adds a block, reporting whether an eviction occurred.
func (s *Strategy) Add(key blockcache.Key, value []byte) bool {
	return s.cache.Add(key, value)
}

// Len returns the number of cached blocks.
func (s *Strategy) Len() int {
	return s.cache.Len()
}
