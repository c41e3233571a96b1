// Package reporting provides report generation for benchmark results.
package reporting

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/discochess/tablebase/benchmark/analysis"
	"github.com/discochess/tablebase/benchmark/simulation"
)

// MarkdownReport generates benchmark reports in Markdown format.
type MarkdownReport struct {
	w io.Writer
}

// NewMarkdownReport creates a new Markdown report writer.
func NewMarkdownReport(w io.Writer) *MarkdownReport {
	return &MarkdownReport{w: w}
}

// WriteHeader writes the report header.
func (r *MarkdownReport) WriteHeader(title string) {
	fmt.Fprintf(r.w, "# %s\n\n", title)
	fmt.Fprintf(r.w, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
}

// WriteMethodology writes the methodology section.
func (r *MarkdownReport) WriteMethodology(gamesCount, positionsCount, maxPieces int) {
	fmt.Fprintln(r.w, "## Methodology")
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "- **Games with endgames:** %d\n", gamesCount)
	fmt.Fprintf(r.w, "- **Positions probed:** %d (at most %d pieces)\n", positionsCount, maxPieces)
	fmt.Fprintln(r.w, "- **Metrics:** probe outcome rates, probe latency in microseconds (lower is better)")
	fmt.Fprintln(r.w, "- **Statistical tests:** Wilcoxon rank-sum with tie correction, rank-biserial effect size, overall and per probe outcome")
	fmt.Fprintln(r.w)
}

// WriteSummaryTable writes the summary table, one row per run in the given
// order.
func (r *MarkdownReport) WriteSummaryTable(results []*simulation.AggregateResult) {
	fmt.Fprintln(r.w, "## Summary")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Run | Probes | Found | Draws | No Data | Errors | Median | P99 | Materials |")
	fmt.Fprintln(r.w, "|-----|--------|-------|-------|---------|--------|--------|-----|-----------|")

	for _, res := range results {
		metrics := simulation.ComputeMetrics(res)
		latency := analysis.Describe(res.Latencies)
		fmt.Fprintf(r.w, "| %s | %d | %.1f%% | %d | %d | %d | %.1fus | %.1fus | %d |\n",
			res.Name, res.TotalProbes, metrics.FoundRate, res.Draws, res.NoData, res.Errors,
			latency.Median, latency.P99, metrics.UniqueMaterials)
	}
	fmt.Fprintln(r.w)
}

// WriteMaterials writes the most probed material signatures of a run.
func (r *MarkdownReport) WriteMaterials(res *simulation.AggregateResult, n int) {
	fmt.Fprintln(r.w, "## Materials")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Material | Probes |")
	fmt.Fprintln(r.w, "|----------|--------|")
	for _, m := range simulation.TopMaterials(res, n) {
		fmt.Fprintf(r.w, "| %s | %d |\n", m, res.MaterialHits[m])
	}
	fmt.Fprintln(r.w)
}

// WriteComparison writes the latency comparison of two runs, overall and per
// probe outcome.
func (r *MarkdownReport) WriteComparison(comp *analysis.RunComparison) {
	fmt.Fprintf(r.w, "## %s vs %s\n\n", comp.Run1, comp.Run2)

	o := comp.Overall
	fmt.Fprintln(r.w, "### Latency (us)")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Metric | "+comp.Run1+" | "+comp.Run2+" |")
	fmt.Fprintln(r.w, "|--------|"+strings.Repeat("-", len(comp.Run1)+2)+"|"+strings.Repeat("-", len(comp.Run2)+2)+"|")
	fmt.Fprintf(r.w, "| Mean | %.1f | %.1f |\n", o.Stats1.Mean, o.Stats2.Mean)
	fmt.Fprintf(r.w, "| Median | %.1f | %.1f |\n", o.Stats1.Median, o.Stats2.Median)
	fmt.Fprintf(r.w, "| P90 | %.1f | %.1f |\n", o.Stats1.P90, o.Stats2.P90)
	fmt.Fprintf(r.w, "| P99 | %.1f | %.1f |\n", o.Stats1.P99, o.Stats2.P99)
	fmt.Fprintf(r.w, "| Max | %.0f | %.0f |\n", o.Stats1.Max, o.Stats2.Max)
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### By Outcome")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "| Outcome | Probes | Median "+comp.Run1+" | Median "+comp.Run2+" | p | r | Faster |")
	fmt.Fprintln(r.w, "|---------|--------|--------|--------|---|---|--------|")
	for _, lc := range append([]*analysis.LatencyComparison{o}, comp.ByOutcome...) {
		faster := "-"
		if lc.Confident {
			faster = lc.Faster
		}
		fmt.Fprintf(r.w, "| %s | %d / %d | %.1f | %.1f | %.4f | %.2f | %s |\n",
			lc.Label, lc.Stats1.N, lc.Stats2.N, lc.Stats1.Median, lc.Stats2.Median,
			lc.Test.PValue, lc.Test.RankBiserial, faster)
	}
	fmt.Fprintln(r.w)

	fmt.Fprintln(r.w, "### Conclusion")
	fmt.Fprintln(r.w)
	if o.Confident {
		fmt.Fprintf(r.w, "**%s** probes significantly faster than %s ",
			o.Faster, otherRun(o.Faster, comp.Run1, comp.Run2))
		fmt.Fprintf(r.w, "(p < %.2f, rank-biserial r = %.2f, %s effect).\n", analysis.Alpha, o.Test.RankBiserial, o.Test.Effect)
	} else {
		fmt.Fprintf(r.w, "No statistically significant latency difference detected (p >= %.2f).\n", analysis.Alpha)
	}
	fmt.Fprintln(r.w)
}

func otherRun(winner, s1, s2 string) string {
	if winner == s1 {
		return s2
	}
	return s1
}

// WriteDistributionChart writes an ASCII distribution chart, for example of
// the distances returned by resolved probes.
func (r *MarkdownReport) WriteDistributionChart(name string, data []int) {
	fmt.Fprintf(r.w, "### %s Distribution\n\n", name)
	fmt.Fprintln(r.w, "```")

	// Create histogram.
	hist := makeHistogram(data, 10)
	maxCount := 0
	for _, count := range hist {
		if count > maxCount {
			maxCount = count
		}
	}

	// Print histogram.
	width := 40
	for i, count := range hist {
		barLen := 0
		if maxCount > 0 {
			barLen = count * width / maxCount
		}
		bar := strings.Repeat("█", barLen)
		lo, hi := bucketRange(data, len(hist), i)
		fmt.Fprintf(r.w, "%3d-%3d │ %s %d\n", lo, hi, bar, count)
	}

	fmt.Fprintln(r.w, "```")
	fmt.Fprintln(r.w)
}

// bucketRange returns the inclusive value range of bucket i.
func bucketRange(data []int, buckets, i int) (lo, hi int) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi = slices.Min(data), slices.Max(data)
	if hi == lo {
		hi = lo + 1
	}
	size := float64(hi-lo+1) / float64(buckets)
	return lo + int(float64(i)*size), lo + int(float64(i+1)*size) - 1
}

func makeHistogram(data []int, buckets int) []int {
	if len(data) == 0 {
		return make([]int, buckets)
	}

	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		max = min + 1
	}

	hist := make([]int, buckets)
	bucketSize := float64(max-min+1) / float64(buckets)

	for _, v := range data {
		bucket := int(float64(v-min) / bucketSize)
		if bucket >= buckets {
			bucket = buckets - 1
		}
		hist[bucket]++
	}

	return hist
}

// WriteFooter writes the report footer.
func (r *MarkdownReport) WriteFooter() {
	fmt.Fprintln(r.w, "---")
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "*Report generated by tablebase bench*")
}
