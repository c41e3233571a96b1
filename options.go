package tablebase

import (
	"go.uber.org/zap"

	"github.com/discochess/tablebase/internal/blockcache"
	"github.com/discochess/tablebase/internal/mbinfo"
	"github.com/discochess/tablebase/internal/registry"
	"github.com/discochess/tablebase/internal/stats"
)

// DefaultCacheBlocks is the default number of decoded blocks kept in memory.
const DefaultCacheBlocks = 1024

// Option configures a Tablebase.
type Option interface {
	apply(*options)
}

// options holds the tablebase configuration.
type options struct {
	classifier  mbinfo.Classifier
	opener      registry.Opener
	cache       blockcache.Backend
	cacheBlocks int
	stats       stats.Collector
	logger      *zap.Logger
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		cacheBlocks: DefaultCacheBlocks,
		stats:       stats.NewNoop(),
		logger:      zap.NewNop(),
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithClassifier sets the index classifier. It is required.
func WithClassifier(c mbinfo.Classifier) Option {
	return optionFunc(func(o *options) {
		o.classifier = c
	})
}

// WithOpener replaces the function that opens table files.
// If not set, packed table files are opened with the block cache.
func WithOpener(op registry.Opener) Option {
	return optionFunc(func(o *options) {
		o.opener = op
	})
}

// WithBlockCache sets the decoded block cache.
// It takes precedence over WithCacheSize.
func WithBlockCache(c blockcache.Backend) Option {
	return optionFunc(func(o *options) {
		o.cache = c
	})
}

// WithCacheSize sets the number of decoded blocks kept in the default LRU
// cache. Zero disables caching.
// Default is DefaultCacheBlocks.
func WithCacheSize(blocks int) Option {
	return optionFunc(func(o *options) {
		o.cacheBlocks = blocks
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}
