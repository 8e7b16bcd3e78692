package runner

import (
	"context"

	"github.com/example/flakeorder/detector/domain"
)

// FactSource supplies the facts a planning run consumes. They are
// produced by static analysis or a build tool and read once per run.
type FactSource interface {
	// Universe returns every test in original execution order.
	Universe(ctx context.Context) ([]string, error)

	// SelectedTests returns the tests an upstream selector chose as
	// changed. It returns domain.ErrNotFound when no selection exists, in
	// which case every test is treated as affected.
	SelectedTests(ctx context.Context) ([]string, error)

	// Dependencies returns the test -> class relation.
	Dependencies(ctx context.Context) (domain.Relation, error)

	// FieldAccesses returns the test,field access facts in order.
	FieldAccesses(ctx context.Context) ([]domain.FieldAccess, error)

	// Classes returns class metadata for the mutability oracle.
	Classes(ctx context.Context) ([]domain.ClassInfo, error)

	// Classpath returns the entries checked for changes between runs.
	Classpath(ctx context.Context) ([]string, error)
}

// ArtifactWriter persists the outputs of a planning run.
type ArtifactWriter interface {
	// WriteSchedules writes the selected schedules and their count.
	WriteSchedules(ctx context.Context, schedules []domain.Schedule) error

	// WriteAffected writes the affected test list.
	WriteAffected(ctx context.Context, tests []string) error
}

// RunStore records run summaries.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	UpdateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, id string) (*domain.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*domain.Run, error)
}
