package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/discochess/tablebase"
)

var probeCmd = &cobra.Command{
	Use:   "probe [FEN]",
	Short: "Probe the value of a chess position",
	Long: `Probe the distance to conversion of a chess position given in FEN notation.

The FEN string should include at least the piece placement and side to move.
Positions with castling rights or more than nine pieces are never found.

A positive distance means the side to move converts, a negative one that the
opponent does.

Examples:
  # King and queen against king
  tablebase probe "8/8/4k3/8/8/8/8/Q3K3 w - -"

  # Several table sets
  tablebase probe --tables ./mb --tables gs://my-bucket/mb "8/8/8/8/8/2k5/2P5/2K5 b - -"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProbe,
}

var (
	outputJSON bool
	showTiming bool
)

func init() {
	probeCmd.Flags().BoolVar(&outputJSON, "json", false, "output result as JSON")
	probeCmd.Flags().BoolVar(&showTiming, "timing", false, "show probe timing")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	// Accept an unquoted FEN split over several arguments.
	fen := strings.Join(args, " ")

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	tb, cleanup, err := openTablebase(ctx, logger, newCollector(logger))
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	v, err := tb.ProbeFEN(ctx, fen)
	elapsed := time.Since(start)

	found := true
	if errors.Is(err, tablebase.ErrNotFound) {
		found = false
	} else if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	res := probeResult{FEN: fen, Found: found, Value: v, Elapsed: elapsed}
	if outputJSON {
		return res.writeJSON(os.Stdout, showTiming)
	}
	res.writeText(os.Stdout, showTiming)
	return nil
}

// probeResult is the outcome of a single probe.
type probeResult struct {
	FEN     string
	Found   bool
	Value   tablebase.Value
	Elapsed time.Duration
}

// outcome describes the value from the side to move's point of view.
func (r probeResult) outcome() string {
	switch {
	case !r.Found:
		return "unknown"
	case r.Value.IsDraw():
		return "draw"
	case r.Value.DTC > 0:
		return "win"
	default:
		return "loss"
	}
}

func (r probeResult) writeText(w io.Writer, timing bool) {
	fmt.Fprintf(w, "FEN:     %s\n", r.FEN)
	if r.Found {
		fmt.Fprintf(w, "Value:   %s\n", r.Value)
	} else {
		fmt.Fprintf(w, "Value:   no information\n")
	}
	fmt.Fprintf(w, "Outcome: %s\n", r.outcome())
	if timing {
		fmt.Fprintf(w, "Time:    %s\n", r.Elapsed)
	}
}

type probeJSON struct {
	FEN       string `json:"fen"`
	Found     bool   `json:"found"`
	Outcome   string `json:"outcome"`
	DTC       *int   `json:"dtc,omitempty"`
	ElapsedUS *int64 `json:"elapsed_us,omitempty"`
}

func (r probeResult) writeJSON(w io.Writer, timing bool) error {
	out := probeJSON{FEN: r.FEN, Found: r.Found, Outcome: r.outcome()}
	if r.Found {
		dtc := r.Value.DTC
		out.DTC = &dtc
	}
	if timing {
		us := r.Elapsed.Microseconds()
		out.ElapsedUS = &us
	}
	return json.NewEncoder(w).Encode(out)
}
