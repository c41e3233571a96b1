package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/tablebase"
	"github.com/discochess/tablebase/internal/registry"
	"github.com/discochess/tablebase/internal/stats"
	promstats "github.com/discochess/tablebase/internal/stats/prometheus"
	"github.com/discochess/tablebase/internal/store"
	"github.com/discochess/tablebase/internal/store/diskstore"
	"github.com/discochess/tablebase/internal/store/gcsstore"
	"github.com/discochess/tablebase/internal/store/s3store"
)

var (
	// Global flags.
	tableDirs      []string
	classifierDirs []string
	verbose        bool
	cacheBlocks int
	metricsAddr string
	s3Region    string
	s3Endpoint  string
	gcsEndpoint string
)

var rootCmd = &cobra.Command{
	Use:   "tablebase",
	Short: "Probe MB endgame tables for positions with up to nine pieces",
	Long: `Tablebase is a CLI tool for probing, inspecting and packing MB endgame
table sets.

Table sets can live in local directories, Google Cloud Storage
(gs://bucket/prefix) or S3 (s3://bucket/prefix). Probing needs the native
index classifier, linked in with -tags mbeval. The classifier only reads local
directories, so every remote set needs a local copy named with
--classifier-path, one per remote set in --tables order.

Tables are read in the packed format. Convert generator output with
tablebase pack before probing it.

Examples:
  # Probe a position
  tablebase probe --tables ./mb "8/8/8/8/8/2k5/2P5/2K5 w - -"

  # Count the registered tables
  tablebase tables --tables ./mb --tables gs://my-bucket/mb

  # Pack raw tables
  tablebase pack --source ./raw --output ./mb`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&tableDirs, "tables", "t", []string{"./mb"}, "table set locations (directory, gs:// or s3:// URL)")
	rootCmd.PersistentFlags().StringSliceVar(&classifierDirs, "classifier-path", nil, "local copy of each remote table set for the index classifier, in --tables order")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().IntVar(&cacheBlocks, "cache-blocks", tablebase.DefaultCacheBlocks, "decoded blocks to keep in memory (0 disables the cache)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	rootCmd.PersistentFlags().StringVar(&s3Region, "s3-region", "", "AWS region for s3:// table sets")
	rootCmd.PersistentFlags().StringVar(&s3Endpoint, "s3-endpoint", "", "custom endpoint for S3-compatible services")
	rootCmd.PersistentFlags().StringVar(&gcsEndpoint, "gcs-endpoint", "", "custom endpoint for GCS, e.g. an emulator")
}

// newLogger returns a development logger with --verbose and a quiet
// production logger otherwise.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// newCollector returns a Prometheus collector served on --metrics-addr, or a
// no-op collector when the flag is unset.
func newCollector(logger *zap.Logger) stats.Collector {
	if metricsAddr == "" {
		return stats.NewNoop()
	}

	reg := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return promstats.New(reg)
}

// location is a parsed --tables entry.
var errNoClassifierPath = errors.New("remote table set needs a local copy for the classifier; pass --classifier-path")

type location struct {
	scheme string // "", "gs" or "s3"
	bucket string
	path   string // directory, or prefix within the bucket
}

func parseLocation(s string) (location, error) {
	for _, scheme := range []string{"gs", "s3"} {
		rest, ok := strings.CutPrefix(s, scheme+"://")
		if !ok {
			continue
		}
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return location{}, fmt.Errorf("invalid table location %q: missing bucket name", s)
		}
		return location{scheme: scheme, bucket: bucket, path: strings.Trim(prefix, "/")}, nil
	}
	if s == "" {
		return location{}, fmt.Errorf("empty table location")
	}
	return location{path: s}, nil
}

// openStore opens the store behind a table location.
func openStore(ctx context.Context, loc location) (store.Store, error) {
	switch loc.scheme {
	case "gs":
		opts := []gcsstore.Option{gcsstore.WithPrefix(loc.path)}
		if gcsEndpoint != "" {
			opts = append(opts, gcsstore.WithEndpoint(gcsEndpoint))
		}
		st, err := gcsstore.New(ctx, loc.bucket, opts...)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "s3":
		opts := []s3store.Option{s3store.WithPrefix(loc.path)}
		if s3Region != "" {
			opts = append(opts, s3store.WithRegion(s3Region))
		}
		if s3Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(s3Endpoint))
		}
		st, err := s3store.New(ctx, loc.bucket, opts...)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		st, err := diskstore.New(loc.path)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

// openTablebase creates a tablebase with the native classifier and registers
// every --tables location. The returned cleanup closes the tablebase and
// any remote stores.
func openTablebase(ctx context.Context, logger *zap.Logger, collector stats.Collector, opts ...tablebase.Option) (*tablebase.Tablebase, func(), error) {
	classifier, err := newClassifier()
	if err != nil {
		return nil, nil, err
	}

	opts = append([]tablebase.Option{
		tablebase.WithClassifier(classifier),
		tablebase.WithCacheSize(cacheBlocks),
		tablebase.WithStats(collector),
		tablebase.WithLogger(logger),
	}, opts...)

	tb, err := tablebase.New(opts...)
	if err != nil {
		return nil, nil, err
	}

	var remote []store.Store
	cleanup := func() {
		tb.Close()
		for _, st := range remote {
			st.Close()
		}
	}

	locs := make([]location, len(tableDirs))
	for i, s := range tableDirs {
		if locs[i], err = parseLocation(s); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	localDirs, err := pairClassifierDirs(locs, classifierDirs)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	for i, loc := range locs {
		s := tableDirs[i]
		if loc.scheme == "" {
			if _, err := tb.AddPath(ctx, loc.path); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("registering %s: %w", s, err)
			}
			continue
		}

		st, err := openStore(ctx, loc)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("opening %s: %w", s, err)
		}
		remote = append(remote, st)
		if _, err := tb.AddStore(ctx, st, "", localDirs[i]); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("registering %s: %w", s, err)
		}
	}

	return tb, cleanup, nil
}

// pairClassifierDirs returns the classifier directory of every location:
// local directories stand for themselves and remote sets take the next
// --classifier-path value.
func pairClassifierDirs(locs []location, paths []string) ([]string, error) {
	dirs := make([]string, len(locs))
	next := 0
	for i, loc := range locs {
		if loc.scheme == "" {
			dirs[i] = loc.path
			continue
		}
		if next >= len(paths) {
			return nil, fmt.Errorf("%w: %s://%s/%s", errNoClassifierPath, loc.scheme, loc.bucket, loc.path)
		}
		dirs[i] = paths[next]
		next++
	}
	if next < len(paths) {
		return nil, fmt.Errorf("%d --classifier-path values for %d remote table sets", len(paths), next)
	}
	return dirs, nil
}

// openRegistry registers every --tables location without a classifier, for
// commands that only inspect table files.
func openRegistry(ctx context.Context, logger *zap.Logger) (*registry.Registry, func(), error) {
	reg := registry.New(registry.TableFileOpener(), registry.WithLogger(logger))

	var stores []store.Store
	cleanup := func() {
		reg.Close()
		for _, st := range stores {
			st.Close()
		}
	}

	for _, s := range tableDirs {
		loc, err := parseLocation(s)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		st, err := openStore(ctx, loc)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("opening %s: %w", s, err)
		}
		stores = append(stores, st)
		if _, err := reg.Register(ctx, st, ""); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("registering %s: %w", s, err)
		}
	}

	return reg, cleanup, nil
}
