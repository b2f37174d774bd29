package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherIngestsNewFileMatchingExtension(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var ingested []string
	ingest := func(_ context.Context, path string) error {
		mu.Lock()
		defer mu.Unlock()
		ingested = append(ingested, path)
		return nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := New(dir, ingest, logger, Options{DebounceWindow: 20 * time.Millisecond, Extensions: []string{".mhtml"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond) // let fsw.Add settle before writing

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.mhtml"), []byte("archive"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ingested) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, filepath.Join(dir, "page.mhtml"), ingested[0])
}

func TestWatcherDebouncesRapidRewrites(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	calls := 0
	ingest := func(_ context.Context, _ string) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := New(dir, ingest, logger, Options{DebounceWindow: 100 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)

	path := filepath.Join(dir, "page.mhtml")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("archive"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, 2*time.Second, 10*time.Millisecond)
}
