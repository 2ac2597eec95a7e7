package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type chanReloader struct {
	calls chan struct{}
}

func (r *chanReloader) Reload(context.Context) error {
	r.calls <- struct{}{}
	return nil
}

func TestCheckpointWatcherReloadsOnPublish(t *testing.T) {
	target := filepath.Join(t.TempDir(), "models", "fine_tuned_model")
	reloader := &chanReloader{calls: make(chan struct{}, 4)}
	w, err := NewCheckpointWatcher(target, reloader, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	staging := stagingDir(target, "run-1")
	writeCheckpointMarker(t, staging, "new")
	if err := publishCheckpoint(staging, target, "run-1"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case <-reloader.calls:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected reload after publish")
	}
}

func TestCheckpointWatcherRelevant(t *testing.T) {
	target := filepath.Join(t.TempDir(), "fine_tuned_model")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	w, err := NewCheckpointWatcher(target, &chanReloader{}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()

	cases := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: target, Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: stagingDir(target, "x"), Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: filepath.Join(filepath.Dir(target), "other"), Op: fsnotify.Create}, false},
	}
	for _, tc := range cases {
		if got := w.relevant(tc.event); got != tc.want {
			t.Fatalf("relevant(%v) = %v, want %v", tc.event, got, tc.want)
		}
	}
}
