// Package orchestrator implements the public ingest and search
// entrypoints, lifecycle, and concurrency control described in
// SPEC_FULL.md §4.10: it composes the Archive Decoder, Readable-Text
// Extractor, WordPiece Tokenizer, Chunker, Embedding Engine, and the
// storage/search layers into one coherent pipeline.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/webindex/webindex/internal/archive"
	"github.com/webindex/webindex/internal/chunk"
	"github.com/webindex/webindex/internal/config"
	indexerrors "github.com/webindex/webindex/internal/errors"
	"github.com/webindex/webindex/internal/extract"
	"github.com/webindex/webindex/internal/search"
	"github.com/webindex/webindex/internal/store"
	"github.com/webindex/webindex/internal/tokenize"
)

// Embedder is the subset of the Embedding Engine the Orchestrator needs to
// turn a passage's token ids into a vector during ingest. internal/embed.Engine
// and internal/teststub.Engine both satisfy it.
type Embedder interface {
	EmbedTokens(ctx context.Context, tokenIDs []int) ([]float32, error)
}

// Stats summarizes the index for the stats() operation.
type Stats struct {
	PageCount    int   `json:"page_count"`
	PassageCount int   `json:"passage_count"`
	BytesOnDisk  int64 `json:"bytes_on_disk"`
	ModelReady   bool  `json:"model_ready"`
}

// StateSnapshot is the aggregated view returned by export(), for backup.
// Vectors are intentionally excluded by default (§4.10).
type StateSnapshot struct {
	GeneratedAt int64              `json:"generated_at"`
	Pages       []*store.PageRecord `json:"pages"`
	Config      *config.Config     `json:"config"`
}

// Orchestrator composes the full pipeline and exposes the public
// ingest/search/delete/rebuild/stats/export entrypoints.
type Orchestrator struct {
	cfg       *config.Config
	store     *store.Store
	vocab     *tokenize.Vocabulary
	tokenizer *tokenize.Tokenizer
	chunker   *chunk.Chunker
	embedder  Embedder
	retriever *search.Retriever
	logger    *slog.Logger

	ingestGroup singleflight.Group

	// ingestSem bounds concurrent in-flight ingest pipeline runs, per §5's
	// backpressure contract (Performance.IngestQueueDepth). Acquisition is
	// non-blocking: once that many ingests are in flight, a further ingest
	// fails fast with Overloaded.
	ingestSem chan struct{}
}

// New builds an Orchestrator from its already-constructed dependencies.
// The caller is responsible for loading cfg, opening the Store, loading the
// Vocabulary, and constructing the Embedder (the real ONNX-backed
// internal/embed.Engine in production, internal/teststub.Engine in tests).
func New(cfg *config.Config, st *store.Store, vocab *tokenize.Vocabulary, embedder Embedder, queryEmbedder search.Embedder, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	tokenizer := tokenize.NewTokenizer(vocab)
	chunker := chunk.NewChunker(tokenizer, chunk.Options{
		MaxContentTokens: cfg.MaxContentTokens(),
		Overlap:          cfg.OverlapSize,
	})
	retriever := search.New(st.Index, st.Vectors, st.Meta, st.Chunks, queryEmbedder, cfg.RRFConstant, cfg.PerModeCandidates)

	depth := cfg.Performance.IngestQueueDepth
	if depth <= 0 {
		depth = 64
	}

	return &Orchestrator{
		cfg:       cfg,
		store:     st,
		vocab:     vocab,
		tokenizer: tokenizer,
		chunker:   chunker,
		embedder:  embedder,
		retriever: retriever,
		logger:    logger,
		ingestSem: make(chan struct{}, depth),
	}
}

// Ingest runs the full decode→extract→tokenize→chunk→embed→persist
// pipeline for one archive, per the state machine in §4.10. A URL already
// present in the URL→page_id map is treated as idempotent success (§4.9)
// and returns the existing PageRecord without re-running the pipeline.
// Concurrent calls for the same URL are collapsed by singleflight so every
// caller observes the same result.
func (o *Orchestrator) Ingest(ctx context.Context, archiveBytes []byte, url, title string) (*store.PageRecord, error) {
	if rec, ok := o.store.Meta.GetByURL(url); ok {
		return rec, nil
	}

	v, err, _ := o.ingestGroup.Do(url, func() (interface{}, error) {
		return o.runIngest(ctx, archiveBytes, url, title)
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.PageRecord), nil
}

func (o *Orchestrator) runIngest(ctx context.Context, archiveBytes []byte, url, title string) (*store.PageRecord, error) {
	// Re-check inside the singleflight critical section: another caller may
	// have completed the same ingest while this one queued.
	if rec, ok := o.store.Meta.GetByURL(url); ok {
		return rec, nil
	}

	select {
	case o.ingestSem <- struct{}{}:
		defer func() { <-o.ingestSem }()
	default:
		return nil, indexerrors.New(indexerrors.ErrCodeOverloaded, "ingest queue is full", nil)
	}

	// Capturing: decode the archive into HTML/text.
	decoded, err := archive.Decode(archiveBytes)
	if err != nil {
		return nil, err
	}

	// Extracting: readable text.
	text, err := extract.Extract(decoded)
	if err != nil {
		return nil, err
	}

	// Tokenizing + Chunking: overlapping passages.
	if err := ctx.Err(); err != nil {
		return nil, indexerrors.New(indexerrors.ErrCodeCancelled, "ingest cancelled before chunking", err)
	}
	passages, err := o.chunker.Chunk(text)
	if err != nil {
		return nil, err
	}

	// Embedding: one vector per passage, in chunk_index order (§5 ordering
	// guarantee). A single failed passage fails the whole ingest.
	vectors := make([][]float32, len(passages))
	for i, p := range passages {
		if err := ctx.Err(); err != nil {
			return nil, indexerrors.New(indexerrors.ErrCodeCancelled, "ingest cancelled during embedding", err)
		}
		vec, err := o.embedder.EmbedTokens(ctx, p.TokenIDs)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}

	capturedAt := time.Now().UnixMilli()
	pageID := derivePageID(url, capturedAt)

	// Persisting, following §4.9's write ordering: chunks blob, then
	// vectors blob, then the in-memory index update + its persistence,
	// and only then pages.meta. Any failure before the last step rolls
	// back the blobs already written so a crash or error never leaves
	// pages.meta pointing at missing data.
	if err := o.store.Chunks.Save(pageID, passages); err != nil {
		return nil, err
	}
	if err := o.store.Vectors.Add(pageID, vectors); err != nil {
		o.rollbackChunks(pageID)
		return nil, err
	}
	for i, p := range passages {
		o.store.Index.Index(store.PassageKey{PageID: pageID, ChunkIndex: i}, p.Text)
	}
	if err := o.store.SaveIndex(); err != nil {
		o.store.Index.DeletePage(pageID)
		o.rollbackChunks(pageID)
		o.rollbackVectors(pageID)
		return nil, err
	}

	rec := &store.PageRecord{
		PageID:       pageID,
		URL:          url,
		Title:        title,
		CapturedAt:   capturedAt,
		ChunkCount:   len(passages),
		EmbeddingDim: o.cfg.EmbeddingDim,
	}
	if err := o.store.Meta.Put(rec); err != nil {
		o.store.Index.DeletePage(pageID)
		_ = o.store.SaveIndex()
		o.rollbackChunks(pageID)
		o.rollbackVectors(pageID)
		return nil, err
	}

	return rec, nil
}

func (o *Orchestrator) rollbackChunks(pageID string) {
	if err := o.store.Chunks.Delete(pageID); err != nil {
		o.logger.Warn("rollback: failed to remove orphaned chunks blob", slog.String("page_id", pageID), slog.Any("error", err))
	}
}

func (o *Orchestrator) rollbackVectors(pageID string) {
	if err := o.store.Vectors.Delete(pageID); err != nil {
		o.logger.Warn("rollback: failed to remove orphaned vectors blob", slog.String("page_id", pageID), slog.Any("error", err))
	}
}

// Search dispatches to the Hybrid Retriever.
func (o *Orchestrator) Search(ctx context.Context, query string, limit int, mode config.SearchMode) ([]search.ScoredHit, error) {
	if limit <= 0 {
		limit = o.cfg.DefaultSearchLimit
	}
	return o.retriever.Search(ctx, query, limit, mode)
}

// DeletePage removes a page and every trace of it from storage (§4.10).
func (o *Orchestrator) DeletePage(pageID string) error {
	return o.store.DeletePage(pageID)
}

// RebuildLexicalIndex reconstructs the inverted index from persisted
// passages without touching embeddings (§4.10).
func (o *Orchestrator) RebuildLexicalIndex() error {
	return o.store.RebuildLexicalIndex()
}

// Stats reports page_count, passage_count, bytes_on_disk, and model_ready.
func (o *Orchestrator) Stats() (Stats, error) {
	pages := o.store.Meta.All()
	passageCount := 0
	for _, rec := range pages {
		passageCount += rec.ChunkCount
	}
	bytesOnDisk, err := o.store.BytesOnDisk()
	if err != nil {
		return Stats{}, err
	}
	modelReady := o.embedder != nil

	return Stats{
		PageCount:    len(pages),
		PassageCount: passageCount,
		BytesOnDisk:  bytesOnDisk,
		ModelReady:   modelReady,
	}, nil
}

// Export returns an aggregated snapshot of page metadata and settings for
// backup. Vectors are excluded by default (§4.10).
func (o *Orchestrator) Export() StateSnapshot {
	return StateSnapshot{
		GeneratedAt: time.Now().UnixMilli(),
		Pages:       o.store.Meta.All(),
		Config:      o.cfg,
	}
}
