// Package analysis provides statistical analysis of probe benchmark results.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Alpha is the significance level of the latency tests.
const Alpha = 0.05

// RankSumResult is the outcome of a Wilcoxon rank-sum (Mann-Whitney) test
// between two latency samples.
type RankSumResult struct {
	U           float64 // Smaller of the two U statistics.
	Z           float64 // Tie- and continuity-corrected z score; negative when the first sample ranks lower.
	PValue      float64 // Two-tailed.
	Significant bool    // PValue < Alpha.

	// RankBiserial is the rank-biserial correlation in [-1, 1]. Positive
	// values mean the first sample tends to be smaller, i.e. faster.
	RankBiserial float64
	Effect       string // "negligible", "small", "medium" or "large".
}

// RankSum compares two samples without assuming a distribution, which suits
// latencies with long cache-miss tails.
func RankSum(a, b []float64) *RankSumResult {
	n1, n2 := float64(len(a)), float64(len(b))
	if n1 == 0 || n2 == 0 {
		return &RankSumResult{Effect: "undefined"}
	}

	// Weight 1 marks members of a so the weights follow the sort.
	x := make([]float64, 0, len(a)+len(b))
	member := make([]float64, 0, len(a)+len(b))
	for _, v := range a {
		x = append(x, v)
		member = append(member, 1)
	}
	for _, v := range b {
		x = append(x, v)
		member = append(member, 0)
	}
	stat.SortWeighted(x, member)

	var r1, ties float64
	for i := 0; i < len(x); {
		j := i
		for j < len(x) && x[j] == x[i] {
			j++
		}
		rank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			r1 += rank * member[k]
		}
		if t := float64(j - i); t > 1 {
			ties += t*t*t - t
		}
		i = j
	}

	u1 := r1 - n1*(n1+1)/2
	res := &RankSumResult{
		U:            math.Min(u1, n1*n2-u1),
		RankBiserial: 1 - 2*u1/(n1*n2),
	}
	res.Effect = interpretRankBiserial(res.RankBiserial)

	n := n1 + n2
	variance := n1 * n2 / 12 * ((n + 1) - ties/(n*(n-1)))
	if variance <= 0 {
		res.PValue = 1
		return res
	}

	diff := u1 - n1*n2/2
	res.Z = math.Copysign(math.Max(math.Abs(diff)-0.5, 0), diff) / math.Sqrt(variance)
	res.PValue = math.Min(1, 2*distuv.UnitNormal.CDF(-math.Abs(res.Z)))
	res.Significant = res.PValue < Alpha
	return res
}

func interpretRankBiserial(r float64) string {
	switch r = math.Abs(r); {
	case r < 0.1:
		return "negligible"
	case r < 0.3:
		return "small"
	case r < 0.5:
		return "medium"
	default:
		return "large"
	}
}

// DescriptiveStats contains basic descriptive statistics.
type DescriptiveStats struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	P25    float64
	P75    float64
	P90    float64
	P99    float64
}

// Describe computes descriptive statistics for a sample.
func Describe(sample []float64) *DescriptiveStats {
	if len(sample) == 0 {
		return &DescriptiveStats{}
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	d := &DescriptiveStats{
		N:      len(sample),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.90, stat.Empirical, sorted, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
	if len(sample) > 1 {
		d.Mean, d.StdDev = stat.MeanStdDev(sample, nil)
	} else {
		d.Mean = sample[0]
	}
	return d
}
