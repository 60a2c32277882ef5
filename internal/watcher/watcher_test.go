package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatcher_FiresOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "Analytics.csv")
	require.NoError(t, os.WriteFile(source, []byte("CustomerID\n"), 0644))

	var fired atomic.Int32
	w, err := New(source, 50*time.Millisecond, func(ctx context.Context, path string) {
		fired.Add(1)
	}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	defer w.Stop()

	// Let the watch settle before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(source, []byte("CustomerID\nC-1\n"), 0644))

	assert.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "Analytics.csv")
	require.NoError(t, os.WriteFile(source, []byte("CustomerID\n"), 0644))

	var fired atomic.Int32
	w, err := New(source, 200*time.Millisecond, func(ctx context.Context, path string) {
		fired.Add(1)
	}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(source, []byte("CustomerID\nC-1\n"), 0644))
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)

	// The burst collapsed into a single invalidation.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "Analytics.csv")
	require.NoError(t, os.WriteFile(source, []byte("CustomerID\n"), 0644))

	var fired atomic.Int32
	w, err := New(source, 50*time.Millisecond, func(ctx context.Context, path string) {
		fired.Add(1)
	}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	defer w.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "Analytics.csv")
	require.NoError(t, os.WriteFile(source, []byte("CustomerID\n"), 0644))

	w, err := New(source, 50*time.Millisecond, func(ctx context.Context, path string) {}, testLogger())
	require.NoError(t, err)

	w.Stop()
	assert.NotPanics(t, func() { w.Stop() })
}
