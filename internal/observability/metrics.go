package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Pipeline stage labels.
const (
	StageGate   = "gate"
	StageExpand = "expand"
	StageDerive = "derive"
	StageSquare = "square"
	StageSelect = "select"
	StageWrite  = "write"
)

// Metrics holds planning pipeline metrics.
type Metrics struct {
	stageDuration  *HistogramVec
	runs           *CounterVec
	schedules      *Counter
	pairsRetired   *Counter
	classesSkipped *Counter
	fieldsSkipped  *Counter
	constructions  *CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics() *Metrics {
	return &Metrics{
		stageDuration:  NewHistogramVec(),
		runs:           NewCounterVec(),
		schedules:      &Counter{},
		pairsRetired:   &Counter{},
		classesSkipped: &Counter{},
		fieldsSkipped:  &Counter{},
		constructions:  NewCounterVec(),
	}
}

func (m *Metrics) StageDuration(stage string) *Histogram { return m.stageDuration.WithLabel(stage) }
func (m *Metrics) Runs(status string) *Counter           { return m.runs.WithLabel(status) }
func (m *Metrics) Schedules() *Counter                   { return m.schedules }
func (m *Metrics) PairsRetired() *Counter                { return m.pairsRetired }
func (m *Metrics) ClassesSkipped() *Counter              { return m.classesSkipped }
func (m *Metrics) FieldsSkipped() *Counter               { return m.fieldsSkipped }
func (m *Metrics) Constructions(kind string) *Counter    { return m.constructions.WithLabel(kind) }

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		StageDuration:  m.stageDuration.Snapshot(),
		Runs:           m.runs.Snapshot(),
		Schedules:      m.schedules.Get(),
		PairsRetired:   m.pairsRetired.Get(),
		ClassesSkipped: m.classesSkipped.Get(),
		FieldsSkipped:  m.fieldsSkipped.Get(),
		Constructions:  m.constructions.Snapshot(),
	}
}

// MetricsSnapshot holds a point-in-time snapshot of all metrics.
type MetricsSnapshot struct {
	StageDuration  map[string]HistogramSnapshot `json:"stage_duration"`
	Runs           map[string]int64             `json:"runs"`
	Schedules      int64                        `json:"schedules"`
	PairsRetired   int64                        `json:"pairs_retired"`
	ClassesSkipped int64                        `json:"classes_skipped"`
	FieldsSkipped  int64                        `json:"fields_skipped"`
	Constructions  map[string]int64             `json:"constructions"`
}

// WriteText writes a human-readable report.
func (s *MetricsSnapshot) WriteText(w io.Writer) {
	fmt.Fprintf(w, "# flakeorder metrics\n\n")

	fmt.Fprintf(w, "## Stages\n\n")
	if len(s.StageDuration) == 0 {
		fmt.Fprintf(w, "no data\n")
	}
	for _, stage := range sortedKeys(s.StageDuration) {
		h := s.StageDuration[stage]
		fmt.Fprintf(w, "%s (n=%d): mean %v, p50 %v, p95 %v, max %v\n",
			stage, h.Count, h.Mean, h.P50, h.P95, h.Max)
	}

	fmt.Fprintf(w, "\n## Runs\n\n")
	for _, status := range sortedKeys(s.Runs) {
		fmt.Fprintf(w, "%s: %d\n", status, s.Runs[status])
	}
	fmt.Fprintf(w, "schedules: %d\n", s.Schedules)
	fmt.Fprintf(w, "pairs retired: %d\n", s.PairsRetired)
	fmt.Fprintf(w, "classes skipped: %d\n", s.ClassesSkipped)
	fmt.Fprintf(w, "fields skipped: %d\n", s.FieldsSkipped)

	if len(s.Constructions) > 0 {
		fmt.Fprintf(w, "\n## Squares\n\n")
		for _, kind := range sortedKeys(s.Constructions) {
			fmt.Fprintf(w, "%s: %d\n", kind, s.Constructions[kind])
		}
	}
}

// ServeHTTP implements http.Handler for metrics exposition.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := m.Snapshot()

	if r.URL.Query().Get("format") == "json" || r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.Encode(snapshot)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	snapshot.WriteText(w)
}
