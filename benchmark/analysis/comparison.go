package analysis

import (
	"fmt"
	"strings"

	"github.com/discochess/tablebase/benchmark/simulation"
)

// LatencyComparison compares one group of probe latencies across two runs.
type LatencyComparison struct {
	Label  string // "all" or a probe outcome.
	Stats1 *DescriptiveStats
	Stats2 *DescriptiveStats
	Test   *RankSumResult

	// Faster names the run with the lower median, or "tie".
	Faster    string
	Confident bool // The rank-sum test is significant.
}

// RunComparison compares the probe latencies of two runs over the same games,
// overall and per probe outcome.
type RunComparison struct {
	Run1      string
	Run2      string
	Overall   *LatencyComparison
	ByOutcome []*LatencyComparison // Outcomes seen in both runs, in report order.
}

// CompareRuns compares the probe latencies of two runs.
func CompareRuns(result1, result2 *simulation.AggregateResult) *RunComparison {
	c := &RunComparison{
		Run1:    result1.Name,
		Run2:    result2.Name,
		Overall: compareLatencies("all", result1.Name, result2.Name, result1.Latencies, result2.Latencies),
	}
	for _, o := range simulation.Outcomes {
		s1, s2 := result1.OutcomeLatencies[o], result2.OutcomeLatencies[o]
		if len(s1) == 0 || len(s2) == 0 {
			continue
		}
		c.ByOutcome = append(c.ByOutcome, compareLatencies(o.String(), result1.Name, result2.Name, s1, s2))
	}
	return c
}

func compareLatencies(label, name1, name2 string, s1, s2 []float64) *LatencyComparison {
	lc := &LatencyComparison{
		Label:  label,
		Stats1: Describe(s1),
		Stats2: Describe(s2),
		Test:   RankSum(s1, s2),
		Faster: "tie",
	}
	switch {
	case lc.Stats1.Median < lc.Stats2.Median:
		lc.Faster = name1
	case lc.Stats2.Median < lc.Stats1.Median:
		lc.Faster = name2
	}
	lc.Confident = lc.Faster != "tie" && lc.Test.Significant
	return lc
}

// Summary returns a human-readable summary of the comparison.
func (c *RunComparison) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s vs %s:\n", c.Run1, c.Run2)
	for _, lc := range append([]*LatencyComparison{c.Overall}, c.ByOutcome...) {
		fmt.Fprintf(&b, "  %-8s median %.1fus vs %.1fus (%+.1f%%), p99 %.1fus vs %.1fus, ",
			lc.Label+":",
			lc.Stats1.Median, lc.Stats2.Median,
			safePctDiff(lc.Stats1.Median, lc.Stats2.Median),
			lc.Stats1.P99, lc.Stats2.P99,
		)
		if lc.Confident {
			fmt.Fprintf(&b, "%s faster (p=%.4f, r=%.2f %s)\n", lc.Faster, lc.Test.PValue, lc.Test.RankBiserial, lc.Test.Effect)
		} else {
			fmt.Fprintf(&b, "no significant difference (p=%.4f)\n", lc.Test.PValue)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func safePctDiff(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}
