package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/webindex/webindex/internal/config"
	"github.com/webindex/webindex/internal/embed"
	"github.com/webindex/webindex/internal/orchestrator"
	"github.com/webindex/webindex/internal/store"
	"github.com/webindex/webindex/internal/tokenize"
)

// app bundles the orchestrator and the resources it owns, so a command
// can release the ONNX session on exit. The store takes no file lock, so
// there is nothing else to release.
type app struct {
	cfg  *config.Config
	orch *orchestrator.Orchestrator

	store  *store.Store
	engine *embed.Engine
}

func (a *app) Close() {
	if a.engine != nil {
		_ = a.engine.Close()
	}
}

// buildApp loads configuration and wires the full dependency graph the
// orchestrator needs: vocabulary, tokenizer, embedding engine, query
// embedder, and the on-disk store.
func buildApp(logger *slog.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	st, err := store.Open(cfg.DataRoot, cfg.EmbeddingDim, store.BM25Config{
		K1:             cfg.BM25K1,
		B:              cfg.BM25B,
		MinTokenLength: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", cfg.DataRoot, err)
	}

	vocab, err := tokenize.LoadVocabulary(cfg.Model.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary at %s: %w", cfg.Model.VocabPath, err)
	}
	tokenizer := tokenize.NewTokenizer(vocab)

	engine, err := embed.New(embed.Options{
		ModelPath:        cfg.Model.ONNXPath,
		Dimension:        cfg.EmbeddingDim,
		InferenceTimeout: time.Duration(cfg.InferenceTimeoutMS) * time.Millisecond,
		CacheSize:        cfg.Performance.EmbeddingCacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("load embedding model: %w", err)
	}

	queryEmbedder := embed.NewQueryEmbedder(engine, tokenizer)
	orch := orchestrator.New(cfg, st, vocab, engine, queryEmbedder, logger)

	return &app{cfg: cfg, orch: orch, store: st, engine: engine}, nil
}
