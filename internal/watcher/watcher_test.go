package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dshills/flowdex/internal/indexer"
)

func startWatcher(t *testing.T, root string, reindex ReindexFunc) *Watcher {
	t.Helper()
	w, err := New(root, 50*time.Millisecond, reindex, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWatcher_TriggersReindexOnChange(t *testing.T) {
	root := t.TempDir()
	triggered := make(chan struct{}, 1)
	startWatcher(t, root, func(ctx context.Context) error {
		select {
		case triggered <- struct{}{}:
		default:
		}
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, "wf.json"), []byte(`{"nodes": []}`), 0o644))

	select {
	case <-triggered:
	case <-time.After(3 * time.Second):
		t.Fatal("reindex was not triggered")
	}
}

func TestWatcher_CollapsesBurstsIntoOneRun(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatcher(t, root, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "wf.json"), []byte(`{"nodes": []}`), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	// Let any stray triggers fire, then confirm the burst collapsed.
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestWatcher_IgnoresNonJSONFiles(t *testing.T) {
	root := t.TempDir()
	var runs atomic.Int32
	startWatcher(t, root, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestWatcher_RetriesWhenReindexBusy(t *testing.T) {
	root := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, root, func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			return indexer.ErrReindexInProgress
		}
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, "wf.json"), []byte(`{"nodes": []}`), 0o644))

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)
}
