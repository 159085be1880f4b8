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
)

func newBodyfile(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "body.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0644))
	return dir, path
}

func TestNewFileWatcherMissingFile(t *testing.T) {
	fw, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
	assert.Nil(t, fw)
}

func TestFileWatcherReportsWrites(t *testing.T) {
	_, path := newBodyfile(t)

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(path, []byte("second\n"), 0644))

	select {
	case ev := <-fw.Events():
		assert.Equal(t, path, ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for a write to the watched file")
	}
}

func TestFileWatcherIgnoresSiblings(t *testing.T) {
	dir, path := newBodyfile(t)

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x\n"), 0644))

	select {
	case ev := <-fw.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileWatcherSeesReplacement(t *testing.T) {
	dir, path := newBodyfile(t)

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	defer fw.Close()

	tmp := filepath.Join(dir, "body.txt.new")
	require.NoError(t, os.WriteFile(tmp, []byte("replaced\n"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case ev := <-fw.Events():
		assert.Equal(t, path, ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for a replaced file")
	}
}

func TestFileWatcherRunCoalescesChanges(t *testing.T) {
	_, path := newBodyfile(t)

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)
	defer fw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		fw.Run(ctx, 200*time.Millisecond, func() { calls.Add(1) })
		close(done)
	}()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("burst\n"), 0644))
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestFileWatcherRunStopsOnClose(t *testing.T) {
	_, path := newBodyfile(t)

	fw, err := NewFileWatcher(path)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		fw.Run(context.Background(), time.Second, func() {})
		close(done)
	}()

	require.NoError(t, fw.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after Close")
	}
}
