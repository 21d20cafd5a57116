package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileNotifiesOnWriteAndReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.lrc")
	require.NoError(t, os.WriteFile(path, []byte("[00:01.00]a"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, path, func() { calls.Add(1) })
	}()

	// let the watcher register before touching the file
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[00:01.00]b"), 0644))
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	before := calls.Load()
	tmp := filepath.Join(dir, "song.lrc.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("[00:01.00]c"), 0644))
	require.NoError(t, os.Rename(tmp, path))
	require.Eventually(t, func() bool { return calls.Load() > before }, 2*time.Second, 10*time.Millisecond)

	// unrelated files in the same directory are ignored
	settled := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.lrc"), []byte("x"), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestFileMissingDirectory(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "nope", "song.lrc"), func() {})
	assert.Error(t, err)
}
