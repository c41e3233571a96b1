// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Probe metrics.
	MetricProbes         = "tablebase_probes_total"
	MetricProbeResolved  = "tablebase_probe_resolved_total"
	MetricProbeNoData    = "tablebase_probe_nodata_total"
	MetricProbeDuration  = "tablebase_probe_duration_seconds"
	MetricSelectionMiss  = "tablebase_selection_misses_total"
	MetricOverflowProbes = "tablebase_overflow_probes_total"

	// Registry metrics.
	MetricTablesRegistered = "tablebase_tables_registered"
	MetricTableOpens       = "tablebase_table_opens_total"
	MetricTableOpenErrors  = "tablebase_table_open_errors_total"

	// Table I/O metrics.
	MetricBlockReads = "tablebase_block_reads_total"

	// Cache metrics.
	MetricCacheHits   = "tablebase_cache_hits_total"
	MetricCacheMisses = "tablebase_cache_misses_total"
	MetricCacheSize   = "tablebase_cache_size"
)

var help = map[string]string{
	MetricProbes:           "Number of probe calls.",
	MetricProbeResolved:    "Number of probes that produced a value.",
	MetricProbeNoData:      "Number of probes that produced no information.",
	MetricProbeDuration:    "Probe latency in seconds.",
	MetricSelectionMiss:    "Number of positions with no matching table.",
	MetricOverflowProbes:   "Number of probes that hit an overflowed DTC entry.",
	MetricTablesRegistered: "Number of tables in the registry.",
	MetricTableOpens:       "Number of table files opened.",
	MetricTableOpenErrors:  "Number of failed table opens.",
	MetricBlockReads:       "Number of compressed blocks read from storage.",
	MetricCacheHits:        "Number of decoded block cache hits.",
	MetricCacheMisses:      "Number of decoded block cache misses.",
	MetricCacheSize:        "Number of decoded blocks held in the cache.",
}

// probeBuckets spans cached in-memory probes up to cold object store reads.
var probeBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1,
}

// Help returns the description of a metric.
// Unknown metrics are described by their name.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// Buckets returns histogram buckets for a metric, or nil for the
// collector's defaults.
func Buckets(name string) []float64 {
	if name == MetricProbeDuration {
		return probeBuckets
	}
	return nil
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
