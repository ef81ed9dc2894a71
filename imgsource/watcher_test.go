package imgsource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateMapsOpsToKinds(t *testing.T) {
	cases := []struct {
		op   fsnotify.Op
		kind EventKind
	}{
		{fsnotify.Create, Created},
		{fsnotify.Remove, RemovedRenamedAway},
		{fsnotify.Rename, RemovedRenamedAway},
		{fsnotify.Write, Modified},
	}
	for _, c := range cases {
		kind, ok := translate(c.op)
		require.True(t, ok)
		assert.Equal(t, c.kind, kind)
	}

	_, ok := translate(fsnotify.Chmod)
	assert.False(t, ok)
}

func TestWatcherOnMissingDirectoryIsIdle(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	defer w.Close()

	select {
	case ev := <-w.Events():
		t.Fatalf("expected no events from an idle watcher, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatcherEmitsCreatedOnNewFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, nil)
	defer w.Close()

	path := filepath.Join(dir, "wallpaper.png")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	select {
	case ev := <-w.Events():
		assert.Equal(t, Created, ev.Kind)
		assert.Equal(t, path, ev.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Created event")
	}
}
