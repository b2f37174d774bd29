// Package main provides webindex-mcp, a standalone entry point that serves
// the search/ingest/stats MCP tools over stdio without the rest of the
// webindex CLI surface — for MCP client configs that want a single,
// single-purpose binary to exec.
//
// Usage:
//
//	webindex-mcp [--debug]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/webindex/webindex/internal/config"
	"github.com/webindex/webindex/internal/embed"
	"github.com/webindex/webindex/internal/logging"
	"github.com/webindex/webindex/internal/mcp"
	"github.com/webindex/webindex/internal/orchestrator"
	"github.com/webindex/webindex/internal/store"
	"github.com/webindex/webindex/internal/tokenize"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "webindex-mcp",
		Short: "Serve the webindex search/ingest/stats tools over stdio MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), debug)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to ~/.webindex/logs/")
	return cmd
}

func run(ctx context.Context, debug bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if debug {
		logCfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		logger = slog.Default()
	} else {
		defer cleanup()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.DataRoot, cfg.EmbeddingDim, store.BM25Config{
		K1:             cfg.BM25K1,
		B:              cfg.BM25B,
		MinTokenLength: 2,
	})
	if err != nil {
		return fmt.Errorf("open store at %s: %w", cfg.DataRoot, err)
	}

	vocab, err := tokenize.LoadVocabulary(cfg.Model.VocabPath)
	if err != nil {
		return fmt.Errorf("load vocabulary at %s: %w", cfg.Model.VocabPath, err)
	}
	tokenizer := tokenize.NewTokenizer(vocab)

	engine, err := embed.New(embed.Options{
		ModelPath:        cfg.Model.ONNXPath,
		Dimension:        cfg.EmbeddingDim,
		InferenceTimeout: time.Duration(cfg.InferenceTimeoutMS) * time.Millisecond,
		CacheSize:        cfg.Performance.EmbeddingCacheSize,
	})
	if err != nil {
		return fmt.Errorf("load embedding model: %w", err)
	}
	defer func() { _ = engine.Close() }()

	queryEmbedder := embed.NewQueryEmbedder(engine, tokenizer)
	orch := orchestrator.New(cfg, st, vocab, engine, queryEmbedder, logger)

	srv, err := mcp.NewServer(orch, cfg, logger)
	if err != nil {
		return fmt.Errorf("build MCP server: %w", err)
	}
	return srv.Serve(ctx)
}
