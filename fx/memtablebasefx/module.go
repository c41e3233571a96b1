// Package memtablebasefx provides an fx module for a tablebase backed by an
// in-memory store. Useful for testing.
package memtablebasefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/tablebase"
	"github.com/discochess/tablebase/internal/mbinfo"
	"github.com/discochess/tablebase/internal/stats"
	"github.com/discochess/tablebase/internal/stats/logger"
	"github.com/discochess/tablebase/internal/store/memstore"
)

// ClassifierDir is the directory name handed to the classifier for the
// in-memory store. Scripted classifiers ignore it.
const ClassifierDir = "memtablebase"

// Module provides an in-memory tablebase for testing.
// Requires a *zap.Logger and an mbinfo.Classifier to be provided.
// Tables written to the store before the app starts are registered on start.
var Module = fx.Module("memtablebase",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newTablebase,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("tablebase"))
}

func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the tablebase.
type Params struct {
	fx.In

	Logger     *zap.Logger
	Classifier mbinfo.Classifier
	Collector  stats.Collector
	Store      *memstore.Store
	Lifecycle  fx.Lifecycle
}

// Result holds the provided tablebase and store.
type Result struct {
	fx.Out

	Tablebase *tablebase.Tablebase
	Store     *memstore.Store // Exposed for test setup
}

func newTablebase(p Params) (Result, error) {
	tb, err := tablebase.New(
		tablebase.WithClassifier(p.Classifier),
		tablebase.WithStats(p.Collector),
		tablebase.WithLogger(p.Logger.Named("tablebase")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_, err := tb.AddStore(ctx, p.Store, "", ClassifierDir)
			return err
		},
		OnStop: func(ctx context.Context) error {
			return tb.Close()
		},
	})

	return Result{
		Tablebase: tb,
		Store:     p.Store,
	}, nil
}
