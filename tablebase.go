// Package tablebase probes MB endgame tables for positions with up to nine
// pieces.
//
// Tables are read in the packed block format. Generator output must be
// converted with `tablebase pack --source raw --output mb` before it is
// registered: raw tables register under their names but every probe that
// reaches one fails.
//
// Example usage:
//
//	tb, err := tablebase.New(tablebase.WithClassifier(classifier))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tb.Close()
//
//	if _, err := tb.AddPath(ctx, "/path/to/mb"); err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := tb.ProbeFEN(ctx, "8/8/8/8/8/2k5/2P5/2K5 w - - 0 1")
//	if errors.Is(err, tablebase.ErrNotFound) {
//	    // No information; this is not a draw.
//	}
//	fmt.Println(v)
package tablebase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/discochess/tablebase/internal/blockcache/cachestrategy/lru"
	"github.com/discochess/tablebase/internal/blockcache/memory"
	"github.com/discochess/tablebase/internal/material"
	"github.com/discochess/tablebase/internal/mbinfo"
	"github.com/discochess/tablebase/internal/naming"
	"github.com/discochess/tablebase/internal/position"
	"github.com/discochess/tablebase/internal/registry"
	"github.com/discochess/tablebase/internal/stats"
	"github.com/discochess/tablebase/internal/store"
	"github.com/discochess/tablebase/internal/store/diskstore"
	"github.com/discochess/tablebase/internal/tablefile"
)

// MaxPieces is the largest number of pieces, kings included, that is probed.
const MaxPieces = 9

// Sentinel errors for well-defined error conditions.
var (
	// ErrNotFound indicates the tables hold no information about the
	// position. It must not be read as a draw.
	ErrNotFound = errors.New("tablebase: no information")

	// ErrClosed indicates the tablebase has been closed.
	ErrClosed = errors.New("tablebase: closed")

	// ErrNoClassifier indicates no classifier was provided.
	ErrNoClassifier = errors.New("tablebase: no classifier provided")

	// ErrNoClassifierDir indicates a store was added without the local
	// directory the classifier computes its indices against.
	ErrNoClassifierDir = errors.New("tablebase: no classifier directory")
)

// Tablebase probes a set of registered MB tables.
// A Tablebase is safe for concurrent use by multiple goroutines.
type Tablebase struct {
	classifier mbinfo.Classifier
	registry   *registry.Registry
	stats      stats.Collector
	logger     *zap.Logger

	mu     sync.Mutex
	owned  []store.Store
	disks  map[string]store.Store // by absolute directory
	closed atomic.Bool
}

// New creates a new Tablebase with the given options.
// A classifier must be provided with WithClassifier.
func New(opts ...Option) (*Tablebase, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.classifier == nil {
		return nil, ErrNoClassifier
	}

	if cfg.cache == nil && cfg.cacheBlocks > 0 {
		strategy, err := lru.New(cfg.cacheBlocks)
		if err != nil {
			return nil, fmt.Errorf("creating block cache: %w", err)
		}
		cfg.cache = memory.New(strategy, cfg.stats)
	}

	opener := cfg.opener
	if opener == nil {
		tableOpts := []tablefile.Option{tablefile.WithStats(cfg.stats)}
		if cfg.cache != nil {
			tableOpts = append(tableOpts, tablefile.WithCache(cfg.cache))
		}
		opener = registry.TableFileOpener(tableOpts...)
	}

	tb := &Tablebase{
		classifier: cfg.classifier,
		registry: registry.New(opener,
			registry.WithLogger(cfg.logger),
			registry.WithStats(cfg.stats),
		),
		stats:  cfg.stats,
		logger: cfg.logger,
		disks:  make(map[string]store.Store),
	}

	tb.logger.Debug("tablebase initialized",
		zap.Int("cacheBlocks", cfg.cacheBlocks),
	)

	return tb, nil
}

// AddPath registers every table below the directory dir and tells the
// classifier about it. It returns the number of tables found. Adding the
// same directory again rescans it and keeps the tables already opened.
func (tb *Tablebase) AddPath(ctx context.Context, dir string) (int, error) {
	if tb.closed.Load() {
		return 0, ErrClosed
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("resolving table directory: %w", err)
	}

	tb.mu.Lock()
	st, ok := tb.disks[abs]
	if !ok {
		st, err = diskstore.New(abs)
		if err != nil {
			tb.mu.Unlock()
			return 0, fmt.Errorf("opening table directory: %w", err)
		}
		// Tables registered before a listing error stay reachable, so the
		// store is kept either way.
		tb.disks[abs] = st
		tb.owned = append(tb.owned, st)
		tb.classifier.AddPath(dir)
	}
	tb.mu.Unlock()

	return tb.registry.Register(ctx, st, "")
}

// AddStore registers every table below root in st. The caller keeps
// ownership of st.
//
// classifierDir is the local directory the classifier computes indices
// against, usually a mirror of the set in st. It is required: a classifier
// without it finds no data for the tables in st.
func (tb *Tablebase) AddStore(ctx context.Context, st store.Store, root, classifierDir string) (int, error) {
	if tb.closed.Load() {
		return 0, ErrClosed
	}
	if classifierDir == "" {
		return 0, ErrNoClassifierDir
	}

	tb.classifier.AddPath(classifierDir)
	return tb.registry.Register(ctx, st, root)
}

// Tables returns the keys of every registered table, sorted by path.
func (tb *Tablebase) Tables() []naming.Key {
	return tb.registry.Keys()
}

// Registry returns the table registry.
func (tb *Tablebase) Registry() *registry.Registry {
	return tb.registry
}

// ProbeFEN parses fen and probes the position.
func (tb *Tablebase) ProbeFEN(ctx context.Context, fen string) (Value, error) {
	pos, err := position.Parse(fen)
	if err != nil {
		return Value{}, err
	}
	return tb.Probe(ctx, pos)
}

// Probe returns the value of pos. It returns ErrNotFound when the tables
// hold no information about the position.
func (tb *Tablebase) Probe(ctx context.Context, pos *position.Position) (Value, error) {
	if tb.closed.Load() {
		return Value{}, ErrClosed
	}

	start := time.Now()
	tb.stats.IncCounter(stats.MetricProbes, 1)

	v, err := tb.probe(ctx, pos)

	tb.stats.ObserveHistogram(stats.MetricProbeDuration, time.Since(start).Seconds())
	switch {
	case err == nil:
		tb.stats.IncCounter(stats.MetricProbeResolved, 1)
	case errors.Is(err, ErrNotFound):
		tb.stats.IncCounter(stats.MetricProbeNoData, 1)
	}
	return v, err
}

func (tb *Tablebase) probe(ctx context.Context, pos *position.Position) (Value, error) {
	if pos.InsufficientMaterial() {
		return Draw, nil
	}

	if pos.Occupied() > MaxPieces || pos.HasCastlingRights() {
		return Value{}, ErrNotFound
	}

	// Make the stronger side white to reduce the chance of having to probe
	// the mirrored position.
	mat := pos.Material()
	if mat.Strength(material.White) < mat.Strength(material.Black) {
		mirrored, err := pos.Mirror()
		if err != nil {
			return Value{}, err
		}
		pos = mirrored
	}

	res, err := tb.probeSide(ctx, pos)
	if err != nil {
		return Value{}, err
	}
	switch res.outcome {
	case sideNoData:
		return Value{}, ErrNotFound
	case sideDTC:
		return signed(pos, res.dtc), nil
	}

	pos, err = pos.Mirror()
	if err != nil {
		return Value{}, err
	}

	res, err = tb.probeSide(ctx, pos)
	if err != nil {
		return Value{}, err
	}
	switch res.outcome {
	case sideNoData:
		return Value{}, ErrNotFound
	case sideDTC:
		return signed(pos, res.dtc), nil
	default:
		return Draw, nil
	}
}

type sideOutcome int

const (
	sideUnresolved sideOutcome = iota
	sideDTC
	sideNoData
)

type sideResult struct {
	outcome sideOutcome
	dtc     uint8
}

// probeSide looks up pos in the table for White's winning chances only.
func (tb *Tablebase) probeSide(ctx context.Context, pos *position.Position) (sideResult, error) {
	// A lone white king cannot win.
	if pos.Pieces(material.White) <= 1 {
		return sideResult{outcome: sideUnresolved}, nil
	}

	info, ok := tb.classifier.Classify(pos.Request())
	if !ok {
		tb.logger.Debug("classifier has no data", zap.String("fen", pos.String()))
		return sideResult{outcome: sideNoData}, nil
	}

	table, index, err := tb.selectTable(ctx, pos, info, naming.KindMB)
	if err != nil {
		return sideResult{}, fmt.Errorf("selecting table: %w", err)
	}
	if table == nil {
		tb.stats.IncCounter(stats.MetricSelectionMiss, 1)
		tb.logger.Debug("no table for position",
			zap.String("fen", pos.String()),
			zap.String("material", pos.Material().String()),
			zap.Stringer("pawnFile", info.PawnFile),
		)
		return sideResult{outcome: sideNoData}, nil
	}

	v, err := table.Read(ctx, index)
	if err != nil {
		return sideResult{}, fmt.Errorf("reading index %d: %w", index, err)
	}

	switch v.Kind {
	case tablefile.DTC:
		return sideResult{outcome: sideDTC, dtc: v.DTC}, nil
	case tablefile.HighDTC:
		// TODO: consult the .hi table once its index mapping is known.
		tb.stats.IncCounter(stats.MetricOverflowProbes, 1)
		return sideResult{outcome: sideNoData}, nil
	default:
		return sideResult{outcome: sideUnresolved}, nil
	}
}

// signed converts a distance read for pos into a Value.
func signed(pos *position.Position, dtc uint8) Value {
	if pos.Turn() == material.White {
		return Value{DTC: int(dtc)}
	}
	return Value{DTC: -int(dtc)}
}

// Close releases all resources associated with the tablebase.
// After Close, the tablebase should not be used.
func (tb *Tablebase) Close() error {
	if !tb.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	var errs []error
	if err := tb.registry.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing tables: %w", err))
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()
	for _, st := range tb.owned {
		if err := st.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	tb.owned = nil
	clear(tb.disks)

	return errors.Join(errs...)
}
