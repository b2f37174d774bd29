// Package store implements the durable, crash-tolerant persistence layer:
// page metadata, passage text, dense vectors, and the BM25 inverted index.
package store

import (
	"fmt"
)

// PageRecord is the persisted metadata for one captured URL.
type PageRecord struct {
	PageID       string `json:"-"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	CapturedAt   int64  `json:"timestamp"`
	ChunkCount   int    `json:"chunk_count"`
	EmbeddingDim int    `json:"dimensions"`
}

// PassageKey identifies one (page_id, chunk_index) passage, the unit of
// retrieval shared by the BM25 index and the vector store.
type PassageKey struct {
	PageID     string
	ChunkIndex int
}

// String renders the key as "page_id:chunk_index", the doc_key convention
// used by the persisted inverted index (§6).
func (k PassageKey) String() string {
	return fmt.Sprintf("%s:%d", k.PageID, k.ChunkIndex)
}

// ChunkID is the passage's id within its page's chunks file, "chunk_<index>".
func (k PassageKey) ChunkID() string {
	return fmt.Sprintf("chunk_%d", k.ChunkIndex)
}

// PassageRecord is one serialized entry of a page's chunks/{page_id}.json
// file, matching §6's persisted schema exactly.
type PassageRecord struct {
	ID              string `json:"id"`
	Tokens          []int  `json:"tokens"`
	TokenCount      int    `json:"token_count"`
	Text            string `json:"text"`
	StartTokenIndex int    `json:"start_token_index"`
	EndTokenIndex   int    `json:"end_token_index"`
}

// BM25Result is one lexical search hit.
type BM25Result struct {
	Key          PassageKey
	Score        float64
	MatchedTerms []string
}

// VectorResult is one dense search hit.
type VectorResult struct {
	Key        PassageKey
	Similarity float32
}

// IndexStats summarizes the inverted index for the Orchestrator's stats()
// operation.
type IndexStats struct {
	TotalDocuments        int
	TermCount             int
	AverageDocumentLength float64
}

// ErrDimensionMismatch reports a query or stored vector whose length does
// not match the store's configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// BM25Config holds the Okapi BM25 tuning parameters, generalized from the
// teacher's DefaultBM25Config().
type BM25Config struct {
	K1 float64
	B  float64
	// MinTokenLength drops BM25 tokens shorter than or equal to this length.
	MinTokenLength int
}

// DefaultBM25Config returns the spec's default BM25 parameters (§6).
func DefaultBM25Config() BM25Config {
	return BM25Config{K1: 1.2, B: 0.75, MinTokenLength: 2}
}
