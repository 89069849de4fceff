package service

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"rag/extract"
	"rag/loader/internal"
	"rag/loader/types"
)

// Service watches a directory for dropped documents, extracts their text and
// submits it to the ingest endpoint. Processed files go to the archive
// directory, failed ones to the bad directory.
type Service struct {
	cfg     types.Config
	logger  *slog.Logger
	watcher *internal.Watcher
	client  *internal.IngestClient
}

func New(cfg types.Config) *Service {
	return &Service{
		cfg:     cfg,
		logger:  slog.Default(),
		watcher: internal.NewWatcher(cfg),
		client:  internal.NewIngestClient(cfg.IngestURL),
	}
}

func (s *Service) Run() {
	if err := createDirectories(s.cfg.SourceDir, s.cfg.ArchiveDir, s.cfg.BadDir); err != nil {
		log.Fatal("error to create loader directories ", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fileChan := make(chan string, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		s.watcher.WatchFiles(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.processFiles(ctx, fileChan)
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down gracefully...")

	cancel()
	signal.Stop(sigch)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("loader stopped")
	case <-time.After(5 * time.Second):
		s.logger.Warn("loader shutdown timed out")
	}
}

func (s *Service) processFiles(ctx context.Context, fileChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case filePath, ok := <-fileChan:
			if !ok {
				return
			}
			if err := s.processFile(ctx, filePath); err != nil {
				s.logger.Error("file processing failed", "file", filePath, "error", err)
				s.moveTo(filePath, s.cfg.BadDir)
				continue
			}
			s.moveTo(filePath, s.cfg.ArchiveDir)
		}
	}
}

func (s *Service) processFile(ctx context.Context, filePath string) error {
	if !extract.Supported(filePath) {
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(filePath))
	}

	readPath := filePath
	if strings.EqualFold(filepath.Ext(filePath), ".pdf") && (s.cfg.CropTop > 0 || s.cfg.CropBottom > 0) {
		cropped := filePath + ".cropped"
		if err := internal.CropMargins(filePath, cropped, s.cfg.CropTop, s.cfg.CropBottom); err != nil {
			return err
		}
		defer os.Remove(cropped)
		readPath = cropped
	}

	data, err := os.ReadFile(readPath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	text, err := extract.Text(filePath, data)
	if err != nil {
		return err
	}

	source := filepath.Base(filePath)
	processed, err := s.client.Submit(ctx, text, source)
	if err != nil {
		return err
	}

	s.logger.Info("file ingested", "file", filePath, "source", source, "chunks", processed)
	return nil
}

func (s *Service) moveTo(filePath, dir string) {
	target := filepath.Join(dir, filepath.Base(filePath))
	if err := os.Rename(filePath, target); err != nil {
		s.logger.Error("failed to move file", "file", filePath, "target", target, "error", err)
	}
}

func createDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
