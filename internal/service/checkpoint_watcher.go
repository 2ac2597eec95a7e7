package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const defaultWatchDebounce = 500 * time.Millisecond

// CheckpointWatcher recarga el modelo cuando otro proceso (el CLI de entrenamiento)
// publica un checkpoint fine-tuned. Observa el directorio padre porque la publicacion es
// un rename del directorio completo.
type CheckpointWatcher struct {
	target   string
	reloader Reloader
	watcher  *fsnotify.Watcher
	clock    clockwork.Clock
	debounce time.Duration
	logger   *zap.Logger
}

func NewCheckpointWatcher(target string, reloader Reloader, clock clockwork.Clock, logger *zap.Logger) (*CheckpointWatcher, error) {
	parent := filepath.Dir(filepath.Clean(target))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint parent dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(parent); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", parent, err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CheckpointWatcher{
		target:   filepath.Clean(target),
		reloader: reloader,
		watcher:  watcher,
		clock:    clock,
		debounce: defaultWatchDebounce,
		logger:   logger,
	}, nil
}

// Start bloquea hasta que ctx se cancele. Varios eventos seguidos producen un solo reload.
func (w *CheckpointWatcher) Start(ctx context.Context) {
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				pending = w.clock.After(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("checkpoint watcher error", zap.Error(err))
		case <-pending:
			pending = nil
			w.logger.Info("checkpoint change detected, reloading", zap.String("path", w.target))
			if err := w.reloader.Reload(ctx); err != nil {
				w.logger.Error("reload after checkpoint change failed", zap.Error(err))
			}
		}
	}
}

// relevant ignora los directorios ocultos de staging y los checkpoints retirados.
func (w *CheckpointWatcher) relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	if filepath.Clean(event.Name) != w.target {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

func (w *CheckpointWatcher) Stop() error {
	return w.watcher.Close()
}
