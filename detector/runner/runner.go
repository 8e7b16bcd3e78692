// Package runner wires the detection pipeline: change gate, affected-test
// selection, pair derivation, square generation and schedule selection.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gobwas/glob"

	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/detector/pairs"
	"github.com/example/flakeorder/detector/schedule"
	"github.com/example/flakeorder/detector/selector"
	"github.com/example/flakeorder/detector/square"
	"github.com/example/flakeorder/internal/observability"
)

// Option configures a Runner.
type Option func(*Runner)

// WithWriter sets where schedules and the affected list are written.
func WithWriter(w ArtifactWriter) Option {
	return func(r *Runner) { r.writer = w }
}

// WithRunStore records run summaries in store.
func WithRunStore(store RunStore) Option {
	return func(r *Runner) { r.runs = store }
}

// WithChecksumStore enables classpath change detection.
func WithChecksumStore(store selector.ChecksumStore) Option {
	return func(r *Runner) { r.gate = selector.NewGate(store) }
}

// WithOracle replaces the class metadata source. By default the oracle is
// built from FactSource.Classes.
func WithOracle(o selector.MutabilityOracle) Option {
	return func(r *Runner) { r.oracle = o }
}

// WithMetrics records pipeline metrics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithBuilder replaces the square generator.
func WithBuilder(b square.Builder) Option {
	return func(r *Runner) { r.builder = b }
}

// Runner executes planning runs. It keeps no state between runs beyond
// what its stores persist.
type Runner struct {
	config      domain.Config
	facts       FactSource
	writer      ArtifactWriter
	runs        RunStore
	gate        *selector.Gate
	oracle      selector.MutabilityOracle
	builder     square.Builder
	metrics     *observability.Metrics
	idGenerator func() string
}

// NewRunner creates a Runner. The configuration is defaulted and validated.
func NewRunner(config domain.Config, facts FactSource, idGenerator func() string, opts ...Option) (*Runner, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		config:      config,
		facts:       facts,
		idGenerator: idGenerator,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.builder == nil {
		r.builder = square.NewGenerator()
	}
	if r.metrics == nil {
		r.metrics = observability.NewMetrics()
	}
	return r, nil
}

// Config returns the effective configuration.
func (r *Runner) Config() domain.Config {
	return r.config
}

// Metrics returns the metrics the runner records into.
func (r *Runner) Metrics() *observability.Metrics {
	return r.metrics
}

// AffectedResult describes which tests a change affects.
type AffectedResult struct {
	// Universe is every test after exclusion, in original order.
	Universe []string

	// Tests are the affected tests: the seed first, then the expansion.
	Tests []string

	// SelectAll is true when every test was treated as affected.
	SelectAll bool

	// Reason explains SelectAll.
	Reason string

	// Skipped lists classes the oracle could not resolve.
	Skipped []string

	mutability *selector.Mutability
}

// ComputeAffected determines the affected tests. A changed classpath, a
// missing selection or Config.SelectAll yields the whole universe.
func (r *Runner) ComputeAffected(ctx context.Context) (*AffectedResult, error) {
	universe, err := r.facts.Universe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read test universe: %w", err)
	}
	universe, err = r.exclude(universe)
	if err != nil {
		return nil, err
	}

	mutability, err := r.mutability(ctx)
	if err != nil {
		return nil, err
	}
	res := &AffectedResult{Universe: universe, mutability: mutability}

	selectAll, reason, err := r.selectAll(ctx)
	if err != nil {
		return nil, err
	}

	var seed []string
	if !selectAll {
		seed, err = r.facts.SelectedTests(ctx)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			selectAll, reason = true, "no test selection"
		case err != nil:
			return nil, fmt.Errorf("failed to read selected tests: %w", err)
		}
	}

	if selectAll {
		log.Printf("runner: selecting all %d tests: %s", len(universe), reason)
		res.Tests = append([]string(nil), universe...)
		res.SelectAll = true
		res.Reason = reason
		return res, nil
	}

	deps, err := r.facts.Dependencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read dependencies: %w", err)
	}

	start := time.Now()
	expanded, err := selector.New(mutability).Expand(restrictTo(seed, universe), deps)
	r.metrics.StageDuration(observability.StageExpand).Since(start)
	if err != nil {
		return nil, fmt.Errorf("failed to expand affected tests: %w", err)
	}
	r.metrics.ClassesSkipped().Add(int64(len(expanded.Skipped)))

	res.Tests = restrictTo(expanded.Tests, universe)
	res.Skipped = expanded.Skipped
	log.Printf("runner: %d seed tests expanded to %d affected tests", len(seed), len(res.Tests))
	return res, nil
}

func (r *Runner) selectAll(ctx context.Context) (bool, string, error) {
	if r.config.SelectAll {
		return true, "configured", nil
	}
	if r.gate == nil {
		return false, "", nil
	}

	classpath, err := r.facts.Classpath(ctx)
	if err != nil {
		return false, "", fmt.Errorf("failed to read classpath: %w", err)
	}
	start := time.Now()
	changed, err := r.gate.Changed(ctx, classpath)
	r.metrics.StageDuration(observability.StageGate).Since(start)
	if err != nil {
		return false, "", err
	}
	if changed {
		return true, "classpath changed", nil
	}
	return false, "", nil
}

func (r *Runner) mutability(ctx context.Context) (*selector.Mutability, error) {
	oracle := r.oracle
	if oracle == nil {
		classes, err := r.facts.Classes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read class metadata: %w", err)
		}
		oracle = selector.NewTableOracle(classes)
	}
	cached, err := selector.NewCachedOracle(oracle, r.config.OracleCacheSize)
	if err != nil {
		return nil, err
	}
	return selector.NewMutability(cached, r.config.ImmutableTypes), nil
}

func (r *Runner) exclude(tests []string) ([]string, error) {
	if len(r.config.Exclude) == 0 {
		return tests, nil
	}
	globs := make([]glob.Glob, 0, len(r.config.Exclude))
	for _, pattern := range r.config.Exclude {
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return nil, fmt.Errorf("%w: bad exclude pattern %q: %v", domain.ErrInvalidConfig, pattern, err)
		}
		globs = append(globs, g)
	}

	kept := make([]string, 0, len(tests))
	for _, t := range tests {
		excluded := false
		for _, g := range globs {
			if g.Match(t) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, t)
		}
	}
	if dropped := len(tests) - len(kept); dropped > 0 {
		log.Printf("runner: excluded %d tests", dropped)
	}
	return kept, nil
}

// Plan runs the full pipeline and records the run.
func (r *Runner) Plan(ctx context.Context) (*domain.Plan, error) {
	run := domain.NewRun(r.idGenerator())
	if r.runs != nil {
		if err := r.runs.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}
	if err := run.SetStatus(domain.RunRunning); err != nil {
		return nil, err
	}
	r.saveRun(ctx, run)

	plan, err := r.plan(ctx, run.ID)
	if err != nil {
		log.Printf("runner: run %s failed: %v", run.ID, err)
		if ferr := run.SetFailed(err.Error()); ferr == nil {
			r.saveRun(ctx, run)
		}
		r.metrics.Runs(domain.RunFailed.String()).Inc()
		return nil, err
	}

	run.Record(plan)
	if err := run.SetStatus(plan.Status()); err != nil {
		return nil, err
	}
	r.saveRun(ctx, run)
	r.metrics.Runs(run.Status.String()).Inc()
	log.Printf("runner: run %s %s: %d schedules over %d units, %d pairs remaining",
		run.ID, run.Status, len(plan.Schedules), len(plan.Units), len(plan.Remaining))
	return plan, nil
}

func (r *Runner) saveRun(ctx context.Context, run *domain.Run) {
	if r.runs == nil {
		return
	}
	if err := r.runs.UpdateRun(ctx, run); err != nil {
		log.Printf("runner: failed to update run %s: %v", run.ID, err)
	}
}

func (r *Runner) plan(ctx context.Context, runID string) (*domain.Plan, error) {
	affected, err := r.ComputeAffected(ctx)
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{
		RunID:        runID,
		SelectAll:    affected.SelectAll,
		UniverseSize: len(affected.Universe),
		Affected:     affected.Tests,
	}

	var testsByUnit map[string][]string
	if r.config.Granularity == domain.GranularityClass {
		plan.Units = domain.ClassesOf(affected.Tests, r.config.Delimiter)
		testsByUnit = domain.GroupByClass(affected.Tests, r.config.Delimiter)
	} else {
		plan.Units = append([]string(nil), affected.Tests...)
	}

	required, err := r.requiredPairs(ctx, plan.Units, affected.mutability)
	if err != nil {
		return nil, err
	}
	plan.RequiredPairs = required.Len()

	if len(plan.Units) >= 2 && required.Len() > 0 {
		if err := r.selectSchedules(plan, required, testsByUnit); err != nil {
			return nil, err
		}
	}

	if r.writer != nil {
		start := time.Now()
		if err := r.writer.WriteSchedules(ctx, plan.Schedules); err != nil {
			return nil, fmt.Errorf("failed to write schedules: %w", err)
		}
		if err := r.writer.WriteAffected(ctx, plan.Affected); err != nil {
			return nil, fmt.Errorf("failed to write affected tests: %w", err)
		}
		r.metrics.StageDuration(observability.StageWrite).Since(start)
	}
	return plan, nil
}

// requiredPairs derives the unit pairs that must be exercised. Without
// access facts every ordered pair of units is required.
func (r *Runner) requiredPairs(ctx context.Context, units []string, mutability *selector.Mutability) (domain.PairSet, error) {
	accesses, err := r.facts.FieldAccesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read field accesses: %w", err)
	}
	if len(accesses) == 0 {
		return domain.NewPairSet(domain.AllPairs(units)...), nil
	}

	start := time.Now()
	derived, err := pairs.Derive(accesses, mutability, r.config.Delimiter)
	r.metrics.StageDuration(observability.StageDerive).Since(start)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pairs: %w", err)
	}
	r.metrics.FieldsSkipped().Add(int64(len(derived.Skipped)))

	all := derived.All()
	if r.config.Granularity == domain.GranularityClass {
		all = pairs.ClassPairs(all, r.config.Delimiter)
	}
	return pairs.Restrict(all, units), nil
}

func (r *Runner) selectSchedules(plan *domain.Plan, required domain.PairSet, testsByUnit map[string][]string) error {
	start := time.Now()
	sq, err := r.builder.Generate(len(plan.Units))
	r.metrics.StageDuration(observability.StageSquare).Since(start)
	if err != nil {
		return fmt.Errorf("failed to generate square: %w", err)
	}
	plan.Construction = sq.Construction
	plan.SquareOrder = sq.Order
	r.metrics.Constructions(sq.Construction.String()).Inc()
	if !sq.Exact() {
		log.Printf("runner: no exact square of order %d, using %d padded rows", sq.Order, len(sq.Rows))
	}

	candidates, err := schedule.Materialize(sq, plan.Units, testsByUnit)
	if err != nil {
		return err
	}

	tracker := pairs.NewTracker()
	if err := tracker.Register(required.Sorted()...); err != nil {
		return err
	}

	start = time.Now()
	res := schedule.NewSelector(r.config.MaxSchedules).Select(candidates, tracker)
	r.metrics.StageDuration(observability.StageSelect).Since(start)

	plan.Schedules = res.Selected
	plan.Remaining = res.Remaining
	plan.Incomplete = res.Incomplete
	r.metrics.Schedules().Add(int64(len(res.Selected)))
	r.metrics.PairsRetired().Add(int64(res.Retired))
	return nil
}

// Square generates a square of order n. Orders above Config.MaxSquareOrder
// are rejected with domain.ErrInvalidOrder.
func (r *Runner) Square(n int) (*domain.Square, error) {
	if n > r.config.MaxSquareOrder {
		return nil, fmt.Errorf("%w: order %d exceeds the limit of %d",
			domain.ErrInvalidOrder, n, r.config.MaxSquareOrder)
	}
	return r.builder.Generate(n)
}

// History returns up to limit recent runs.
func (r *Runner) History(ctx context.Context, limit int) ([]*domain.Run, error) {
	if r.runs == nil {
		return nil, nil
	}
	return r.runs.ListRuns(ctx, limit)
}

// GetRun returns a recorded run.
func (r *Runner) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	if r.runs == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunNotFound, id)
	}
	return r.runs.GetRun(ctx, id)
}

// restrictTo keeps the tests that appear in universe, without repeats.
func restrictTo(tests, universe []string) []string {
	in := make(map[string]bool, len(universe))
	for _, t := range universe {
		in[t] = true
	}
	out := make([]string, 0, len(tests))
	seen := make(map[string]bool, len(tests))
	for _, t := range tests {
		if in[t] && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
