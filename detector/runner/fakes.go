package runner

import (
	"context"
	"sort"
	"sync"

	"github.com/example/flakeorder/detector/domain"
)

// FakeFacts is an in-memory FactSource for tests.
type FakeFacts struct {
	Tests    []string
	Selected []string

	// NoSelection makes SelectedTests report domain.ErrNotFound.
	NoSelection bool

	Deps      domain.Relation
	Accesses  []domain.FieldAccess
	ClassInfo []domain.ClassInfo
	Entries   []string

	// Err, when set, is returned by every method.
	Err error
}

func (f *FakeFacts) Universe(ctx context.Context) ([]string, error) {
	return f.Tests, f.Err
}

func (f *FakeFacts) SelectedTests(ctx context.Context) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.NoSelection {
		return nil, domain.ErrNotFound
	}
	return f.Selected, nil
}

func (f *FakeFacts) Dependencies(ctx context.Context) (domain.Relation, error) {
	if f.Deps == nil {
		return domain.NewRelation(), f.Err
	}
	return f.Deps, f.Err
}

func (f *FakeFacts) FieldAccesses(ctx context.Context) ([]domain.FieldAccess, error) {
	return f.Accesses, f.Err
}

func (f *FakeFacts) Classes(ctx context.Context) ([]domain.ClassInfo, error) {
	return f.ClassInfo, f.Err
}

func (f *FakeFacts) Classpath(ctx context.Context) ([]string, error) {
	return f.Entries, f.Err
}

// FakeWriter captures written artifacts.
type FakeWriter struct {
	mu        sync.Mutex
	Schedules [][]string
	Affected  []string
	Writes    int
}

func (w *FakeWriter) WriteSchedules(ctx context.Context, schedules []domain.Schedule) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Schedules = w.Schedules[:0]
	for _, s := range schedules {
		w.Schedules = append(w.Schedules, append([]string(nil), s.Tests...))
	}
	w.Writes++
	return nil
}

func (w *FakeWriter) WriteAffected(ctx context.Context, tests []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Affected = append([]string(nil), tests...)
	return nil
}

// FakeRunStore keeps runs in memory.
type FakeRunStore struct {
	mu   sync.Mutex
	runs map[string]domain.Run
}

// NewFakeRunStore creates an empty FakeRunStore.
func NewFakeRunStore() *FakeRunStore {
	return &FakeRunStore{runs: make(map[string]domain.Run)}
}

func (s *FakeRunStore) CreateRun(ctx context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *FakeRunStore) UpdateRun(ctx context.Context, run *domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return domain.ErrRunNotFound
	}
	s.runs[run.ID] = *run
	return nil
}

func (s *FakeRunStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return &run, nil
}

func (s *FakeRunStore) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Run, 0, len(s.runs))
	for _, run := range s.runs {
		r := run
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FakeChecksumStore keeps checksums in memory.
type FakeChecksumStore struct {
	mu   sync.Mutex
	sums map[string]string
}

func (s *FakeChecksumStore) LoadChecksums(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sums == nil {
		return nil, domain.ErrNotFound
	}
	return s.sums, nil
}

func (s *FakeChecksumStore) SaveChecksums(ctx context.Context, sums map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sums = sums
	return nil
}
