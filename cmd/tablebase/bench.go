package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/discochess/tablebase"
	"github.com/discochess/tablebase/benchmark/analysis"
	"github.com/discochess/tablebase/benchmark/pgn"
	"github.com/discochess/tablebase/benchmark/reporting"
	"github.com/discochess/tablebase/benchmark/simulation"
	"github.com/discochess/tablebase/internal/stats"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark probes with endgame positions from real games",
	Long: `Extract the endgame positions of PGN games and probe each of them in
game order, the way an engine would during play.

The report lists how many probes were resolved, drawn or had no data, and
the probe latency distribution. With --compare, the same games are probed a
second time without a block cache and both runs are compared statistically.

Examples:
  # Run with the default cache
  tablebase bench --games games.pgn

  # Compare cached and uncached probes as a markdown report
  tablebase bench --games games.pgn.zst --compare --format markdown --output report.md`,
	RunE: runBench,
}

var (
	gamesFile    string
	benchFormat  string
	benchOutput  string
	maxPieces    int
	compareCold  bool
	topMaterials int
)

func init() {
	benchCmd.Flags().StringVarP(&gamesFile, "games", "g", "", "PGN file containing games (supports .zst)")
	benchCmd.Flags().StringVarP(&benchFormat, "format", "f", "text", "output format: text, markdown")
	benchCmd.Flags().StringVarP(&benchOutput, "output", "o", "", "output file (default: stdout)")
	benchCmd.Flags().IntVar(&maxPieces, "max-pieces", tablebase.MaxPieces, "largest number of pieces in a probed position")
	benchCmd.Flags().BoolVar(&compareCold, "compare", false, "also run without a block cache and compare")
	benchCmd.Flags().IntVar(&topMaterials, "top", 10, "number of materials listed in markdown reports")
	benchCmd.MarkFlagRequired("games")
	rootCmd.AddCommand(benchCmd)
}

// openGames opens a PGN file, decompressing .zst files on the fly.
func openGames(name string) (io.ReadCloser, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening games file: %w", err)
	}
	if !strings.HasSuffix(name, ".zst") {
		return file, nil
	}

	decoder, err := zstd.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &zstdFile{Decoder: decoder, file: file}, nil
}

type zstdFile struct {
	*zstd.Decoder
	file *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.file.Close()
}

func runBench(cmd *cobra.Command, args []string) error {
	switch benchFormat {
	case "text", "markdown":
	default:
		return fmt.Errorf("unknown format %q", benchFormat)
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reader, err := openGames(gamesFile)
	if err != nil {
		return err
	}
	defer reader.Close()

	if verbose {
		fmt.Fprintln(os.Stderr, "Extracting endgame positions from games...")
	}

	games, gs, err := pgn.ExtractEndgamesFromGames(reader, maxPieces)
	if err != nil {
		return fmt.Errorf("extracting positions: %w", err)
	}
	if len(games) == 0 {
		return fmt.Errorf("no endgame positions found in %s", gamesFile)
	}

	var positions int
	for _, g := range games {
		positions += len(g)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Extracted %d positions from %d of %d games\n", positions, len(games), gs.TotalGames)
	}

	collector := newCollector(logger)
	results := make([]*simulation.AggregateResult, 0, 2)

	res, err := runSimulation(ctx, "cached", games, logger, collector)
	if err != nil {
		return err
	}
	results = append(results, res)

	var comparison *analysis.RunComparison
	if compareCold {
		cold, err := runSimulation(ctx, "uncached", games, logger, collector, tablebase.WithCacheSize(0))
		if err != nil {
			return err
		}
		results = append(results, cold)
		comparison = analysis.CompareRuns(res, cold)
	}

	// Output results.
	var output io.Writer = os.Stdout
	if benchOutput != "" {
		f, err := os.Create(benchOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	if benchFormat == "markdown" {
		report := reporting.NewMarkdownReport(output)
		report.WriteHeader("Tablebase Probe Benchmark")
		report.WriteMethodology(len(games), positions, maxPieces)
		report.WriteSummaryTable(results)
		report.WriteMaterials(res, topMaterials)
		if comparison != nil {
			report.WriteComparison(comparison)
		}
		report.WriteDistributionChart("DTC", res.DTCs)
		report.WriteFooter()
		return nil
	}

	reporting.WriteText(output, results, comparison)
	return nil
}

// runSimulation probes every game with a fresh tablebase.
func runSimulation(ctx context.Context, name string, games [][]string, logger *zap.Logger, collector stats.Collector, opts ...tablebase.Option) (*simulation.AggregateResult, error) {
	tb, cleanup, err := openTablebase(ctx, logger, collector, opts...)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if verbose {
		fmt.Fprintf(os.Stderr, "Running %s probes...\n", name)
	}
	return simulation.NewSimulator(name, tb).SimulateGames(ctx, games)
}
