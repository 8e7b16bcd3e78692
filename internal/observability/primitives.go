package observability

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Histogram records duration samples. Safe for concurrent use.
type Histogram struct {
	mu      sync.Mutex
	samples []time.Duration
}

// NewHistogram creates an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{}
}

// Observe records a duration.
func (h *Histogram) Observe(d time.Duration) {
	h.mu.Lock()
	h.samples = append(h.samples, d)
	h.mu.Unlock()
}

// Since records the time elapsed from start.
func (h *Histogram) Since(start time.Time) {
	h.Observe(time.Since(start))
}

// Snapshot computes summary statistics over the recorded samples.
func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.Lock()
	sorted := append([]time.Duration(nil), h.samples...)
	h.mu.Unlock()

	if len(sorted) == 0 {
		return HistogramSnapshot{}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return HistogramSnapshot{
		Count: len(sorted),
		Total: total,
		Mean:  total / time.Duration(len(sorted)),
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
		Max:   sorted[len(sorted)-1],
	}
}

// HistogramSnapshot holds calculated statistics for a histogram.
type HistogramSnapshot struct {
	Count int           `json:"count"`
	Total time.Duration `json:"total"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	Max   time.Duration `json:"max"`
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return time.Duration(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

// HistogramVec is a set of histograms keyed by label.
type HistogramVec struct {
	mu         sync.Mutex
	histograms map[string]*Histogram
}

// NewHistogramVec creates an empty histogram vector.
func NewHistogramVec() *HistogramVec {
	return &HistogramVec{histograms: make(map[string]*Histogram)}
}

// WithLabel returns the histogram for label, creating it on first use.
func (hv *HistogramVec) WithLabel(label string) *Histogram {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	h, ok := hv.histograms[label]
	if !ok {
		h = NewHistogram()
		hv.histograms[label] = h
	}
	return h
}

// Snapshot returns a snapshot per label.
func (hv *HistogramVec) Snapshot() map[string]HistogramSnapshot {
	hv.mu.Lock()
	defer hv.mu.Unlock()
	out := make(map[string]HistogramSnapshot, len(hv.histograms))
	for label, h := range hv.histograms {
		out[label] = h.Snapshot()
	}
	return out
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Int64
}

// Inc adds one.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds delta.
func (c *Counter) Add(delta int64) { c.value.Add(delta) }

// Get returns the current value.
func (c *Counter) Get() int64 { return c.value.Load() }

// CounterVec is a set of counters keyed by label.
type CounterVec struct {
	mu       sync.Mutex
	counters map[string]*Counter
}

// NewCounterVec creates an empty counter vector.
func NewCounterVec() *CounterVec {
	return &CounterVec{counters: make(map[string]*Counter)}
}

// WithLabel returns the counter for label, creating it on first use.
func (cv *CounterVec) WithLabel(label string) *Counter {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	c, ok := cv.counters[label]
	if !ok {
		c = &Counter{}
		cv.counters[label] = c
	}
	return c
}

// Snapshot returns the current value per label.
func (cv *CounterVec) Snapshot() map[string]int64 {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	out := make(map[string]int64, len(cv.counters))
	for label, c := range cv.counters {
		out[label] = c.Get()
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
