// Package watch ingests documents dropped into a watched directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// DefaultSettle is how long a file must stay quiet before it is read.
// Editors and downloads write in bursts; ingesting mid-write yields
// truncated documents.
const DefaultSettle = 500 * time.Millisecond

// Watcher ingests files created or modified under a directory.
type Watcher struct {
	ingest    driving.IngestService
	sessionID string
	dir       string
	settle    time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures the watcher.
type Option func(*Watcher)

// WithSettle sets the quiet period before a changed file is ingested.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New creates a watcher that uploads files from dir into the session.
func New(ingest driving.IngestService, sessionID, dir string, opts ...Option) *Watcher {
	w := &Watcher{
		ingest:    ingest,
		sessionID: sessionID,
		dir:       dir,
		settle:    DefaultSettle,
		pending:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the directory until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory: %s is not a directory", w.dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for documents (session %s)", w.dir, w.sessionID)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.eligible(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// eligible filters out directories, hidden files and temp artifacts.
func (w *Watcher) eligible(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return false
	}
	if strings.HasSuffix(name, ".tmp") || strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".crdownload") {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

// schedule (re)arms the settle timer for a path. Repeated writes keep
// pushing ingestion back until the file goes quiet.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.upload(ctx, path)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) upload(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Reading %s failed: %v", path, err)
		return
	}

	receipt, err := w.ingest.Upload(ctx, w.sessionID, &domain.RawUpload{
		Filename: filepath.Base(path),
		Content:  content,
	})
	if err != nil {
		logger.Warn("Ingesting %s failed: %v", path, err)
		return
	}
	logger.Info("Ingested %s (%d chunks, id %s)", path, receipt.ChunkCount, receipt.DocumentID)
}
