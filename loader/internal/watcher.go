package internal

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rag/loader/types"
)

// Watcher polls the source directory and emits file paths once a file has
// stopped changing for the configured monitoring window.
type Watcher struct {
	cfg    types.Config
	logger *slog.Logger

	mu         sync.Mutex
	firstSeen  map[string]time.Time
	processing map[string]bool
}

func NewWatcher(cfg types.Config) *Watcher {
	return &Watcher{
		cfg:        cfg,
		logger:     slog.Default(),
		firstSeen:  make(map[string]time.Time),
		processing: make(map[string]bool),
	}
}

func (w *Watcher) WatchFiles(ctx context.Context, fileChan chan<- string) {
	w.logger.Info("start monitoring folder", "dir", w.cfg.SourceDir)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopped")
			return
		case <-ticker.C:
			w.scan(ctx, fileChan)
		}
	}
}

func (w *Watcher) scan(ctx context.Context, fileChan chan<- string) {
	files, err := os.ReadDir(w.cfg.SourceDir)
	if err != nil {
		w.logger.Error("error while reading source directory", "error", err)
		return
	}

	currentFiles := make(map[string]bool)
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		filePath := filepath.Join(w.cfg.SourceDir, file.Name())
		currentFiles[filePath] = true

		w.mu.Lock()
		if w.processing[filePath] {
			w.mu.Unlock()
			continue
		}
		firstSeen, tracked := w.firstSeen[filePath]
		if !tracked {
			w.firstSeen[filePath] = time.Now()
			w.logger.Info("new file detected", "file", filePath)
			w.mu.Unlock()
			continue
		}
		w.mu.Unlock()

		// Only hand over files that have settled.
		if time.Since(firstSeen) <= w.cfg.MonitoringTime {
			continue
		}

		w.mu.Lock()
		w.processing[filePath] = true
		w.mu.Unlock()

		select {
		case fileChan <- filePath:
		case <-ctx.Done():
			return
		}
	}

	// Drop tracking for files that disappeared from the directory.
	w.mu.Lock()
	for filePath := range w.firstSeen {
		if !currentFiles[filePath] {
			delete(w.firstSeen, filePath)
			delete(w.processing, filePath)
		}
	}
	w.mu.Unlock()
}
