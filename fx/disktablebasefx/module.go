// Package disktablebasefx provides an fx module for a tablebase reading table
// sets from local directories.
package disktablebasefx

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/tablebase"
	"github.com/discochess/tablebase/internal/mbinfo"
	"github.com/discochess/tablebase/internal/stats"
	"github.com/discochess/tablebase/internal/stats/logger"
)

// Config holds configuration for the disk-backed tablebase.
type Config struct {
	// Dirs are the table set directories registered on start.
	Dirs []string

	// CacheBlocks is the number of decoded blocks to cache in memory.
	// Default is tablebase.DefaultCacheBlocks.
	CacheBlocks int
}

// Module provides a disk-backed tablebase.
// Requires a Config, a *zap.Logger and an mbinfo.Classifier to be provided.
var Module = fx.Module("disktablebase",
	fx.Provide(
		newStatsCollector,
		newTablebase,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("tablebase"))
}

// Params holds dependencies for creating the tablebase.
type Params struct {
	fx.In

	Config     Config
	Logger     *zap.Logger
	Classifier mbinfo.Classifier
	Collector  stats.Collector
	Lifecycle  fx.Lifecycle
}

// Result holds the provided tablebase.
type Result struct {
	fx.Out

	Tablebase *tablebase.Tablebase
}

func newTablebase(p Params) (Result, error) {
	cacheBlocks := p.Config.CacheBlocks
	if cacheBlocks <= 0 {
		cacheBlocks = tablebase.DefaultCacheBlocks
	}

	tb, err := tablebase.New(
		tablebase.WithClassifier(p.Classifier),
		tablebase.WithCacheSize(cacheBlocks),
		tablebase.WithStats(p.Collector),
		tablebase.WithLogger(p.Logger.Named("tablebase")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for _, dir := range p.Config.Dirs {
				if _, err := tb.AddPath(ctx, dir); err != nil {
					return fmt.Errorf("registering %s: %w", dir, err)
				}
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return tb.Close()
		},
	})

	return Result{Tablebase: tb}, nil
}
