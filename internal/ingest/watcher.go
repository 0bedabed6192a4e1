package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchExtensions lists the file types picked up in watch mode.
var watchExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

const debounceWindow = 500 * time.Millisecond

// Watcher ingests files from a directory as they appear or change.
// Editors produce bursts of write events for one save, so events are
// debounced per path before ingestion runs.
type Watcher struct {
	ingestor *Ingestor
	dir      string
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher over dir.
func NewWatcher(ingestor *Ingestor, dir string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		ingestor: ingestor,
		dir:      dir,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	ext := strings.ToLower(filepath.Ext(event.Name))
	if !watchExtensions[ext] {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[event.Name]; ok {
		timer.Stop()
	}
	path := event.Name
	w.pending[path] = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		stats, err := w.ingestor.IngestFile(ctx, path)
		if err != nil {
			w.logger.Warn("ingest failed", "path", path, "error", err)
			return
		}
		if !stats.Skipped {
			w.logger.Info("file ingested", "path", path, "chunks", stats.Chunks)
		}
	})
}
