package orchestrator

import (
	"context"
	"os"
	"path/filepath"

	"github.com/webindex/webindex/internal/watcher"
)

// Watch starts an fsnotify watch over dir, ingesting each new or rewritten
// archive file as it settles (§4.10). It blocks until ctx is cancelled.
func (o *Orchestrator) Watch(ctx context.Context, dir string) error {
	w, err := watcher.New(dir, o.ingestFile, o.logger, watcher.Options{
		Extensions: []string{".mhtml", ".mht"},
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (o *Orchestrator) ingestFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	title := filepath.Base(path)
	_, err = o.Ingest(ctx, data, "file://"+path, title)
	return err
}
