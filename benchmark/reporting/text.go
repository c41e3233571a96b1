package reporting

import (
	"fmt"
	"io"

	"github.com/discochess/tablebase/benchmark/analysis"
	"github.com/discochess/tablebase/benchmark/simulation"
)

// WriteText writes a plain text report of one or more runs.
// comp may be nil.
func WriteText(w io.Writer, results []*simulation.AggregateResult, comp *analysis.RunComparison) {
	fmt.Fprintf(w, "Tablebase Probe Benchmark\n")
	fmt.Fprintf(w, "=========================\n\n")

	for _, res := range results {
		metrics := simulation.ComputeMetrics(res)
		latency := analysis.Describe(res.Latencies)

		fmt.Fprintf(w, "%s:\n", res.Name)
		fmt.Fprintf(w, "  Games:             %d\n", res.Games)
		fmt.Fprintf(w, "  Probes:            %d\n", res.TotalProbes)
		fmt.Fprintf(w, "  Found:             %.1f%% (%d resolved, %d draws)\n", metrics.FoundRate, res.Resolved, res.Draws)
		fmt.Fprintf(w, "  No data:           %d\n", res.NoData)
		fmt.Fprintf(w, "  Errors:            %d\n", res.Errors)
		fmt.Fprintf(w, "  Materials:         %d (top 10%% = %.1f%% of probes)\n", metrics.UniqueMaterials, metrics.TopMaterialPct)
		fmt.Fprintf(w, "  Avg switches/game: %.2f\n", metrics.AvgSwitchesPerGame)
		fmt.Fprintf(w, "  Latency:           median %.1fus, p90 %.1fus, p99 %.1fus\n\n", latency.Median, latency.P90, latency.P99)
	}

	if comp != nil {
		fmt.Fprintf(w, "Statistical Analysis:\n")
		fmt.Fprintf(w, "---------------------\n\n")
		fmt.Fprintln(w, comp.Summary())
	}
}
