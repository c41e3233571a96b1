package stats

import "sync"

// Recorder is a collector that keeps the latest metric values in memory.
// Tests use it to assert on what a component reported.
type Recorder struct {
	mu           sync.Mutex
	counters     map[string]int64
	gauges       map[string]int64
	observations map[string][]float64
}

// Compile-time check that Recorder implements Collector.
var _ Collector = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		counters:     make(map[string]int64),
		gauges:       make(map[string]int64),
		observations: make(map[string][]float64),
	}
}

func (r *Recorder) IncCounter(name string, delta int64) {
	r.mu.Lock()
	r.counters[name] += delta
	r.mu.Unlock()
}

func (r *Recorder) SetGauge(name string, value int64) {
	r.mu.Lock()
	r.gauges[name] = value
	r.mu.Unlock()
}

func (r *Recorder) ObserveHistogram(name string, value float64) {
	r.mu.Lock()
	r.observations[name] = append(r.observations[name], value)
	r.mu.Unlock()
}

// Counter returns the accumulated value of a counter.
func (r *Recorder) Counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// Gauge returns the last value set on a gauge.
func (r *Recorder) Gauge(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gauges[name]
}

// Observations returns the number of values recorded in a histogram.
func (r *Recorder) Observations(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observations[name])
}
