package storage

import (
	"context"

	"github.com/example/flakeorder/detector/domain"
)

// ListOptions provides filtering options for list operations.
type ListOptions struct {
	// Statuses to filter by (empty = all)
	Statuses []domain.RunStatus

	// Pagination
	Limit  int
	Offset int
}

// RunRepository provides access to Run storage.
type RunRepository interface {
	// Create creates a new Run.
	Create(ctx context.Context, run *domain.Run) error

	// Get retrieves a Run by ID.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// Update updates an existing Run.
	Update(ctx context.Context, run *domain.Run) error

	// List lists Runs, newest first.
	List(ctx context.Context, opts ListOptions) ([]*domain.Run, error)

	// Delete deletes a Run by ID.
	Delete(ctx context.Context, id string) error
}

// ChecksumRepository provides access to the classpath checksums recorded
// by the last run.
type ChecksumRepository interface {
	// Load returns every stored entry -> checksum.
	Load(ctx context.Context) (map[string]string, error)

	// Replace atomically swaps the stored set for sums.
	Replace(ctx context.Context, sums map[string]string) error
}

// UnitOfWork provides transactional access to all repositories.
type UnitOfWork interface {
	// Repository accessors
	Runs() RunRepository
	Checksums() ChecksumRepository

	// Transaction control
	Commit() error
	Rollback() error
}

// Storage provides the main entry point for storage operations.
type Storage interface {
	// Begin starts a new transaction and returns a UnitOfWork.
	Begin(ctx context.Context) (UnitOfWork, error)

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate(ctx context.Context) error
}
