package storage

import (
	"context"
	"fmt"

	"github.com/example/flakeorder/detector/domain"
)

// RunStore adapts a Storage to the runner's run-record interface. Each
// call runs in its own transaction.
type RunStore struct {
	storage Storage
}

// NewRunStore creates a RunStore.
func NewRunStore(s Storage) *RunStore {
	return &RunStore{storage: s}
}

func (s *RunStore) withTx(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(uow); err != nil {
		uow.Rollback()
		return err
	}
	return uow.Commit()
}

// CreateRun persists a new run.
func (s *RunStore) CreateRun(ctx context.Context, run *domain.Run) error {
	return s.withTx(ctx, func(uow UnitOfWork) error {
		return uow.Runs().Create(ctx, run)
	})
}

// UpdateRun persists changes to a run.
func (s *RunStore) UpdateRun(ctx context.Context, run *domain.Run) error {
	return s.withTx(ctx, func(uow UnitOfWork) error {
		return uow.Runs().Update(ctx, run)
	})
}

// GetRun loads a run by ID.
func (s *RunStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	var run *domain.Run
	err := s.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		run, err = uow.Runs().Get(ctx, id)
		return err
	})
	return run, err
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	var runs []*domain.Run
	err := s.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		runs, err = uow.Runs().List(ctx, ListOptions{Limit: limit})
		return err
	})
	return runs, err
}

// ChecksumStore adapts a Storage to the change gate's checksum interface.
type ChecksumStore struct {
	runs *RunStore
}

// NewChecksumStore creates a ChecksumStore.
func NewChecksumStore(s Storage) *ChecksumStore {
	return &ChecksumStore{runs: NewRunStore(s)}
}

// LoadChecksums returns domain.ErrNotFound when no checksums are stored.
func (s *ChecksumStore) LoadChecksums(ctx context.Context) (map[string]string, error) {
	var sums map[string]string
	err := s.runs.withTx(ctx, func(uow UnitOfWork) error {
		var err error
		sums, err = uow.Checksums().Load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(sums) == 0 {
		return nil, domain.ErrNotFound
	}
	return sums, nil
}

// SaveChecksums replaces the stored checksums.
func (s *ChecksumStore) SaveChecksums(ctx context.Context, sums map[string]string) error {
	return s.runs.withTx(ctx, func(uow UnitOfWork) error {
		return uow.Checksums().Replace(ctx, sums)
	})
}
