package daemon

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"intake/internal/logging"
	"intake/internal/queue"
)

// watcher polls a drop directory and enqueues new files as auto-typed
// documents. Files are admitted once their size holds steady across two
// scans, so partially copied documents are left alone.
type watcher struct {
	dir      string
	interval time.Duration
	store    *queue.Store
	logger   *slog.Logger

	pending  map[string]int64
	admitted map[string]struct{}
}

func newWatcher(dir string, interval time.Duration, store *queue.Store, logger *slog.Logger) *watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &watcher{
		dir:      dir,
		interval: interval,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		pending:  make(map[string]int64),
		admitted: make(map[string]struct{}),
	}
}

func (w *watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.logger.Info("watching for documents", logging.String("dir", w.dir))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("watch scan failed", logging.Error(err))
		return
	}

	var ready []queue.FileRef
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) > 0 && name[0] == '.' {
			continue
		}
		path := filepath.Join(w.dir, name)
		seen[path] = struct{}{}
		if _, ok := w.admitted[path]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		size := info.Size()
		if previous, ok := w.pending[path]; ok && previous == size {
			ready = append(ready, queue.FileRef{Path: path, Name: name, SizeBytes: size})
			w.admitted[path] = struct{}{}
			delete(w.pending, path)
			continue
		}
		w.pending[path] = size
	}

	// Forget files that were taken out of the drop directory.
	for path := range w.pending {
		if _, ok := seen[path]; !ok {
			delete(w.pending, path)
		}
	}
	for path := range w.admitted {
		if _, ok := seen[path]; !ok {
			delete(w.admitted, path)
		}
	}

	if len(ready) == 0 {
		return
	}
	ids, err := w.store.Enqueue(ready, queue.EnqueueOptions{DocumentType: queue.DocumentAuto})
	if err != nil {
		w.logger.Warn("watch enqueue failed", logging.Error(err))
		return
	}
	w.logger.Info("documents picked up from watch directory", logging.Int("count", len(ids)))
}
