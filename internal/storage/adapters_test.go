package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/internal/storage"
	"github.com/example/flakeorder/internal/storage/sqlite"
)

func TestRunStore(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	store := storage.NewRunStore(s)
	run := domain.NewRun("r1")
	require.NoError(t, store.CreateRun(ctx, run))
	require.NoError(t, run.SetFailed("boom"))
	require.NoError(t, store.UpdateRun(ctx, run))

	got, err := store.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, "boom", got.FailureReason)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = store.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestChecksumStore(t *testing.T) {
	ctx := context.Background()
	s, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer s.Close()

	store := storage.NewChecksumStore(s)
	_, err = store.LoadChecksums(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.SaveChecksums(ctx, map[string]string{"x.jar": "abc"}))
	sums, err := store.LoadChecksums(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x.jar": "abc"}, sums)
}
