// Package watcher implements SPEC_FULL.md §4.10's watch(dir) entrypoint: an
// fsnotify-based watch over a flat directory of saved archive files,
// calling an ingest callback for each new or rewritten file. It stands in
// for the out-of-scope browser-capture notification channel (§2.1).
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options configures the watcher's debounce window and accepted extensions,
// generalized from the teacher's watcher.Options (DebounceWindow,
// EventBufferSize); polling fallback and gitignore matching are dropped
// since there is no project tree here, only a flat capture directory.
type Options struct {
	// DebounceWindow coalesces the burst of CREATE+WRITE+CHMOD events a
	// single saved file typically produces into one ingest call.
	DebounceWindow time.Duration
	// Extensions restricts ingestion to files with one of these suffixes
	// (case-sensitive). Empty means every regular file is considered.
	Extensions []string
}

// WithDefaults fills zero-valued fields with SPEC_FULL.md-reasonable
// defaults, mirroring the teacher's Options.WithDefaults.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 500 * time.Millisecond
	}
	return o
}

// IngestFunc is called once per settled file with its path.
type IngestFunc func(ctx context.Context, path string) error

// Watcher watches one directory (non-recursive) for new archive files.
type Watcher struct {
	dir     string
	opts    Options
	ingest  IngestFunc
	logger  *slog.Logger
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	mu      sync.Mutex
}

// New builds a Watcher over dir. Call Run to start watching; Run blocks
// until ctx is cancelled.
func New(dir string, ingest IngestFunc, logger *slog.Logger, opts Options) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:     dir,
		opts:    opts.WithDefaults(),
		ingest:  ingest,
		logger:  logger,
		fsw:     fsw,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Run adds the watch and processes events until ctx is cancelled or an
// unrecoverable fsnotify error occurs.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching directory for new archives", slog.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !w.matchesExtension(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, exists := w.pending[event.Name]; exists {
		t.Stop()
	}
	w.pending[event.Name] = time.AfterFunc(w.opts.DebounceWindow, func() {
		w.settle(ctx, event.Name)
	})
}

func (w *Watcher) settle(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	if err := w.ingest(ctx, path); err != nil {
		w.logger.Warn("auto-ingest failed", slog.String("path", path), slog.Any("error", err))
	}
}

func (w *Watcher) matchesExtension(path string) bool {
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range w.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.pending {
		t.Stop()
	}
}
