package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/internal/storage"
)

func openTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunRepository(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)

	uow, err := s.Begin(ctx)
	require.NoError(t, err)

	run := domain.NewRun("run-1")
	require.NoError(t, uow.Runs().Create(ctx, run))

	got, err := uow.Runs().Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunPending, got.Status)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, run.SetStatus(domain.RunRunning))
	run.Record(&domain.Plan{
		SelectAll:     true,
		UniverseSize:  10,
		Affected:      []string{"a", "b"},
		Units:         []string{"A", "B"},
		RequiredPairs: 2,
		Schedules:     []domain.Schedule{{}, {}},
		Construction:  domain.ConstructionCyclic,
		SquareOrder:   2,
	})
	require.NoError(t, run.SetStatus(domain.RunComplete))
	require.NoError(t, uow.Runs().Update(ctx, run))

	got, err = uow.Runs().Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunComplete, got.Status)
	assert.True(t, got.SelectAll)
	assert.Equal(t, 10, got.UniverseSize)
	assert.Equal(t, 2, got.AffectedCount)
	assert.Equal(t, 2, got.ScheduleCount)
	assert.Equal(t, domain.ConstructionCyclic, got.Construction)
	require.NotNil(t, got.CompletedAt)

	require.NoError(t, uow.Commit())
}

func TestRunRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)
	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	_, err = uow.Runs().Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
	assert.ErrorIs(t, uow.Runs().Update(ctx, domain.NewRun("missing")), domain.ErrRunNotFound)
	assert.ErrorIs(t, uow.Runs().Delete(ctx, "missing"), domain.ErrRunNotFound)
}

func TestRunRepositoryList(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)
	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, status := range []domain.RunStatus{domain.RunComplete, domain.RunIncomplete, domain.RunFailed} {
		run := domain.NewRun(string(rune('a' + i)))
		run.Status = status
		run.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, uow.Runs().Create(ctx, run))
	}

	all, err := uow.Runs().List(ctx, storage.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "newest first")

	limited, err := uow.Runs().List(ctx, storage.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "b", limited[0].ID)

	failed, err := uow.Runs().List(ctx, storage.ListOptions{Statuses: []domain.RunStatus{domain.RunFailed}})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "c", failed[0].ID)

	require.NoError(t, uow.Runs().Delete(ctx, "a"))
	all, err = uow.Runs().List(ctx, storage.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestChecksumRepository(t *testing.T) {
	ctx := context.Background()
	s := openTestStorage(t)
	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	sums, err := uow.Checksums().Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, sums)

	require.NoError(t, uow.Checksums().Replace(ctx, map[string]string{"a.jar": "1", "b.jar": "2"}))
	require.NoError(t, uow.Checksums().Replace(ctx, map[string]string{"a.jar": "3"}))

	sums, err = uow.Checksums().Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.jar": "3"}, sums)
}
