package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	ch    chan struct{}
}

func (r *recorder) onChange(ctx context.Context, changed []string) {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Dir: dir, Ignore: []string{"order-*"}, Debounce: 200 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{ch: make(chan struct{}, 4)}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.onChange) }()

	write := func(name string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644))
	}
	write("original-order")
	write("deps")
	write("order-1")
	write("deps")
	rec.wait(t)

	rec.mu.Lock()
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"deps", "original-order"}, rec.calls[0])
	rec.mu.Unlock()

	write("fields")
	rec.wait(t)
	rec.mu.Lock()
	assert.Equal(t, []string{"fields"}, rec.calls[1])
	rec.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New(Config{Dir: t.TempDir(), Ignore: []string{"[oops"}})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(Config{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
