package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/flakeorder/detector/domain"
)

func makeIDGen() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

func sharedStateFacts() *FakeFacts {
	deps := domain.NewRelation()
	deps.Add("T1", "Cls1")
	deps.Add("T2", "Cls1")
	deps.Add("T3", "Cls2")
	return &FakeFacts{
		Tests:    []string{"T1", "T2", "T3"},
		Selected: []string{"T1"},
		Deps:     deps,
		ClassInfo: []domain.ClassInfo{
			{Name: "Cls1", Fields: []domain.FieldInfo{{Name: "state", Type: "java.util.Map", Static: true}}},
			{Name: "Cls2", Fields: []domain.FieldInfo{{Name: "NAME", Type: "java.lang.String", Static: true, Final: true}}},
		},
	}
}

func TestComputeAffectedExpandsThroughSharedState(t *testing.T) {
	r, err := NewRunner(domain.DefaultConfig(), sharedStateFacts(), makeIDGen())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	res, err := r.ComputeAffected(context.Background())
	if err != nil {
		t.Fatalf("ComputeAffected failed: %v", err)
	}
	if res.SelectAll {
		t.Error("SelectAll = true, want false")
	}
	if len(res.Tests) != 2 || res.Tests[0] != "T1" || res.Tests[1] != "T2" {
		t.Errorf("Tests = %v, want [T1 T2]", res.Tests)
	}
}

func TestComputeAffectedChangedClasspathSelectsAll(t *testing.T) {
	jar := filepath.Join(t.TempDir(), "lib.jar")
	if err := os.WriteFile(jar, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	facts := sharedStateFacts()
	facts.Entries = []string{jar}
	store := &FakeChecksumStore{}

	r, err := NewRunner(domain.DefaultConfig(), facts, makeIDGen(), WithChecksumStore(store))
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	ctx := context.Background()

	// No stored checksums: changed.
	res, err := r.ComputeAffected(ctx)
	if err != nil {
		t.Fatalf("ComputeAffected failed: %v", err)
	}
	if !res.SelectAll || len(res.Tests) != 3 {
		t.Errorf("first run: SelectAll=%v Tests=%v, want universe", res.SelectAll, res.Tests)
	}

	// Unchanged: back to seed expansion.
	res, err = r.ComputeAffected(ctx)
	if err != nil {
		t.Fatalf("ComputeAffected failed: %v", err)
	}
	if res.SelectAll || len(res.Tests) != 2 {
		t.Errorf("unchanged run: SelectAll=%v Tests=%v", res.SelectAll, res.Tests)
	}

	// Changed again, even with an empty seed.
	if err := os.WriteFile(jar, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	facts.Selected = nil
	res, err = r.ComputeAffected(ctx)
	if err != nil {
		t.Fatalf("ComputeAffected failed: %v", err)
	}
	if !res.SelectAll || len(res.Tests) != 3 {
		t.Errorf("changed run: SelectAll=%v Tests=%v, want universe", res.SelectAll, res.Tests)
	}
}

func TestComputeAffectedNoSelection(t *testing.T) {
	facts := sharedStateFacts()
	facts.NoSelection = true
	r, _ := NewRunner(domain.DefaultConfig(), facts, makeIDGen())
	res, err := r.ComputeAffected(context.Background())
	if err != nil {
		t.Fatalf("ComputeAffected failed: %v", err)
	}
	if !res.SelectAll || res.Reason != "no test selection" {
		t.Errorf("SelectAll=%v Reason=%q", res.SelectAll, res.Reason)
	}
}

func TestComputeAffectedExclude(t *testing.T) {
	facts := &FakeFacts{
		Tests:       []string{"com.a.FooTest.t1", "com.a.BarIT.t1", "com.b.BazTest.t1"},
		NoSelection: true,
	}
	cfg := domain.DefaultConfig()
	cfg.Exclude = []string{"*.*.*IT.*"}
	r, err := NewRunner(cfg, facts, makeIDGen())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	res, err := r.ComputeAffected(context.Background())
	if err != nil {
		t.Fatalf("ComputeAffected failed: %v", err)
	}
	if len(res.Universe) != 2 {
		t.Errorf("Universe = %v, want IT excluded", res.Universe)
	}

	cfg.Exclude = []string{"[bad"}
	r, err = NewRunner(cfg, facts, makeIDGen())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if _, err := r.ComputeAffected(context.Background()); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("bad pattern error = %v, want ErrInvalidConfig", err)
	}
}

func TestPlanAllPairsTestGranularity(t *testing.T) {
	facts := &FakeFacts{Tests: []string{"A.t1", "A.t2", "B.t1"}, NoSelection: true}
	cfg := domain.DefaultConfig()
	cfg.Granularity = domain.GranularityTest
	writer := &FakeWriter{}
	store := NewFakeRunStore()

	r, err := NewRunner(cfg, facts, makeIDGen(), WithWriter(writer), WithRunStore(store))
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	plan, err := r.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if plan.RequiredPairs != 6 {
		t.Errorf("RequiredPairs = %d, want 6", plan.RequiredPairs)
	}
	if plan.Incomplete {
		t.Errorf("Incomplete, remaining %v", plan.Remaining)
	}
	if plan.Construction != domain.ConstructionPadded {
		t.Errorf("Construction = %s, want padded", plan.Construction)
	}
	if len(writer.Schedules) != len(plan.Schedules) || len(writer.Schedules) == 0 {
		t.Errorf("writer got %d schedules, plan has %d", len(writer.Schedules), len(plan.Schedules))
	}

	covered := domain.NewPairSet()
	for _, s := range writer.Schedules {
		for _, p := range domain.AdjacentPairs(s) {
			covered.Add(p)
		}
	}
	for _, p := range domain.AllPairs(facts.Tests) {
		if !covered.Has(p) {
			t.Errorf("pair %v not covered", p)
		}
	}

	run, err := store.GetRun(context.Background(), plan.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != domain.RunComplete {
		t.Errorf("run status = %s, want COMPLETE", run.Status)
	}
	if run.ScheduleCount != len(plan.Schedules) {
		t.Errorf("run ScheduleCount = %d", run.ScheduleCount)
	}

	got, err := r.GetRun(context.Background(), plan.RunID)
	if err != nil || got.ID != plan.RunID {
		t.Errorf("GetRun = %v, %v", got, err)
	}
	if _, err := r.GetRun(context.Background(), "missing"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("GetRun(missing) error = %v, want ErrRunNotFound", err)
	}
}

func TestPlanClassGranularityWithAccesses(t *testing.T) {
	facts := &FakeFacts{
		Tests:       []string{"A.t1", "A.t2", "B.t1", "C.t1"},
		NoSelection: true,
		Accesses: []domain.FieldAccess{
			{Test: "A.t1", Field: "Shared.counter"},
			{Test: "A.t2", Field: "Shared.counter"},
			{Test: "B.t1", Field: "Shared.counter"},
			{Test: "C.t1", Field: "Shared.LIMIT"},
		},
		ClassInfo: []domain.ClassInfo{{
			Name: "Shared",
			Fields: []domain.FieldInfo{
				{Name: "counter", Type: "int", Static: true, Primitive: true},
				{Name: "LIMIT", Type: "int", Static: true, Final: true, Primitive: true},
			},
		}},
	}
	r, err := NewRunner(domain.DefaultConfig(), facts, makeIDGen())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	plan, err := r.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(plan.Units) != 3 {
		t.Fatalf("Units = %v, want [A B C]", plan.Units)
	}
	if plan.RequiredPairs != 2 {
		t.Errorf("RequiredPairs = %d, want 2 (A,B and B,A)", plan.RequiredPairs)
	}
	if plan.Incomplete {
		t.Errorf("Incomplete, remaining %v", plan.Remaining)
	}
	if len(plan.Schedules) != 2 {
		t.Errorf("len(Schedules) = %d, want 2", len(plan.Schedules))
	}
	for _, s := range plan.Schedules {
		if len(s.Tests) != 4 {
			t.Errorf("schedule %v does not contain all tests", s.Tests)
		}
		// Tests of a class stay together in original order.
		for i, test := range s.Tests {
			if test == "A.t1" && (i+1 >= len(s.Tests) || s.Tests[i+1] != "A.t2") {
				t.Errorf("class A split in %v", s.Tests)
			}
		}
	}
}

func TestPlanCapMarksIncomplete(t *testing.T) {
	facts := &FakeFacts{Tests: []string{"A.t", "B.t", "C.t", "D.t"}, NoSelection: true}
	cfg := domain.DefaultConfig()
	cfg.MaxSchedules = 1
	store := NewFakeRunStore()
	r, _ := NewRunner(cfg, facts, makeIDGen(), WithRunStore(store))

	plan, err := r.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan.Schedules) != 1 || !plan.Incomplete {
		t.Errorf("Schedules=%d Incomplete=%v, want 1 and true", len(plan.Schedules), plan.Incomplete)
	}
	run, _ := store.GetRun(context.Background(), plan.RunID)
	if run.Status != domain.RunIncomplete {
		t.Errorf("run status = %s, want INCOMPLETE", run.Status)
	}
	if run.RemainingPairs != 9 {
		t.Errorf("RemainingPairs = %d, want 9", run.RemainingPairs)
	}
}

func TestPlanSingleUnit(t *testing.T) {
	facts := &FakeFacts{Tests: []string{"A.t1", "A.t2"}, NoSelection: true}
	writer := &FakeWriter{}
	r, _ := NewRunner(domain.DefaultConfig(), facts, makeIDGen(), WithWriter(writer))
	plan, err := r.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan.Schedules) != 0 || plan.Incomplete {
		t.Errorf("Schedules=%d Incomplete=%v, want none", len(plan.Schedules), plan.Incomplete)
	}
	if writer.Writes != 1 {
		t.Errorf("writer called %d times, want 1", writer.Writes)
	}
}

func TestPlanFailureRecorded(t *testing.T) {
	facts := &FakeFacts{Err: errors.New("disk on fire")}
	store := NewFakeRunStore()
	r, _ := NewRunner(domain.DefaultConfig(), facts, makeIDGen(), WithRunStore(store))

	if _, err := r.Plan(context.Background()); err == nil {
		t.Fatal("Plan succeeded, want error")
	}
	runs, _ := store.ListRuns(context.Background(), 0)
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	if runs[0].Status != domain.RunFailed || runs[0].FailureReason == "" {
		t.Errorf("run = %+v, want FAILED with reason", runs[0])
	}
	if got := r.Metrics().Snapshot().Runs["FAILED"]; got != 1 {
		t.Errorf("FAILED runs metric = %d, want 1", got)
	}
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.MaxSchedules = -1
	if _, err := NewRunner(cfg, &FakeFacts{}, makeIDGen()); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("NewRunner error = %v, want ErrInvalidConfig", err)
	}
}

func TestSquarePassthrough(t *testing.T) {
	r, err := NewRunner(domain.DefaultConfig(), &FakeFacts{}, makeIDGen())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	sq, err := r.Square(6)
	if err != nil {
		t.Fatalf("Square failed: %v", err)
	}
	if sq.Order != 6 || len(sq.Rows) != 6 {
		t.Errorf("Square(6) = order %d, %d rows", sq.Order, len(sq.Rows))
	}
	if _, err := r.Square(1); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("Square(1) error = %v, want ErrInvalidOrder", err)
	}
}

func TestSquareRejectsOrdersAboveLimit(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.MaxSquareOrder = 8
	r, err := NewRunner(cfg, &FakeFacts{}, makeIDGen())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if _, err := r.Square(8); err != nil {
		t.Errorf("Square(8) at the limit failed: %v", err)
	}
	if _, err := r.Square(9); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("Square(9) error = %v, want ErrInvalidOrder", err)
	}
	if _, err := r.Square(math.MaxInt32); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("Square(MaxInt32) error = %v, want ErrInvalidOrder", err)
	}
}
