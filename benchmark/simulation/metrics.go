package simulation

import (
	"sort"
)

// Metrics contains computed metrics from simulation results.
type Metrics struct {
	// Core metrics.
	TotalProbes        int
	FoundRate          float64
	UniqueMaterials    int
	AvgSwitchesPerGame float64

	// Distribution metrics.
	MedianSwitchesPerGame float64
	P90SwitchesPerGame    float64
	MaxDTC                int

	// Locality metrics.
	MaterialConcentration float64 // Gini coefficient of material usage.
	TopMaterialPct        float64 // Percentage of probes in the top 10% of materials.
}

// ComputeMetrics computes detailed metrics from aggregate results.
func ComputeMetrics(result *AggregateResult) *Metrics {
	m := &Metrics{
		TotalProbes:     result.TotalProbes,
		FoundRate:       result.FoundRate(),
		UniqueMaterials: len(result.MaterialHits),
	}

	if result.Games > 0 {
		m.AvgSwitchesPerGame = float64(result.TotalSwitches) / float64(result.Games)
	}

	if len(result.SwitchesPerGame) > 0 {
		// Sort for percentile calculation.
		sorted := make([]int, len(result.SwitchesPerGame))
		copy(sorted, result.SwitchesPerGame)
		sort.Ints(sorted)

		m.MedianSwitchesPerGame = percentile(sorted, 50)
		m.P90SwitchesPerGame = percentile(sorted, 90)
	}

	for _, d := range result.DTCs {
		m.MaxDTC = max(m.MaxDTC, d)
	}

	if len(result.MaterialHits) > 0 {
		m.MaterialConcentration = computeGini(result.MaterialHits)
		m.TopMaterialPct = computeTopPct(result.MaterialHits, result.TotalProbes, 0.1)
	}

	return m
}

func percentile(sorted []int, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p / 100)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return float64(sorted[idx])
}

func computeGini(hits map[string]int) float64 {
	if len(hits) == 0 {
		return 0
	}

	// Extract values and sort.
	values := make([]int, 0, len(hits))
	for _, v := range hits {
		values = append(values, v)
	}
	sort.Ints(values)

	n := float64(len(values))
	var sum, cumulativeSum float64
	for i, v := range values {
		sum += float64(v)
		cumulativeSum += float64(i+1) * float64(v)
	}

	if sum == 0 {
		return 0
	}

	// Gini coefficient formula.
	return (2*cumulativeSum)/(n*sum) - (n+1)/n
}

func computeTopPct(hits map[string]int, total int, topFraction float64) float64 {
	if total == 0 || len(hits) == 0 {
		return 0
	}

	// Sort by hit count descending.
	sorted := make([]int, 0, len(hits))
	for _, h := range hits {
		sorted = append(sorted, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	topCount := int(float64(len(sorted)) * topFraction)
	if topCount < 1 {
		topCount = 1
	}

	var topHits int
	for i := 0; i < topCount && i < len(sorted); i++ {
		topHits += sorted[i]
	}

	return float64(topHits) / float64(total) * 100
}

// TopMaterials returns the n most probed material signatures, most probed
// first. Ties are broken by name.
func TopMaterials(result *AggregateResult, n int) []string {
	names := make([]string, 0, len(result.MaterialHits))
	for name := range result.MaterialHits {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		hi, hj := result.MaterialHits[names[i]], result.MaterialHits[names[j]]
		if hi != hj {
			return hi > hj
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
