package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "src/lib.rs", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "src/lib.rs", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "src/lib.rs", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "src/lib.rs", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "src/notes.md", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "src/.lib.rs", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relevant(tt.event), "%s %s", tt.event.Op, tt.event.Name)
	}
}

func TestWatcher_RunsActionOnChange(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	calls := make(chan struct{}, 10)
	w, err := New(root, 20*time.Millisecond, func(context.Context) error {
		calls <- struct{}{}
		return nil
	}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(src, "lib.rs"), []byte("trait A {}\n"), 0o644))

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("action was not invoked")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), DefaultDebounce, func(context.Context) error { return nil }, testLogger())
	assert.Error(t, err)
}
