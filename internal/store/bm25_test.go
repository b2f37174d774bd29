package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBM25TokenizeDropsShortTokens(t *testing.T) {
	tokens := bm25Tokenize("Go is a great language, go-routines!", 2)
	require.Equal(t, []string{"great", "language", "routines"}, tokens)
}

// S5-adjacent: deletion must zero out every trace of a page's postings.
func TestInvertedIndexDeletePageRemovesAllTraces(t *testing.T) {
	idx := NewInvertedIndex(DefaultBM25Config())
	idx.Index(PassageKey{PageID: "p1", ChunkIndex: 0}, "the quick brown fox jumps")
	idx.Index(PassageKey{PageID: "p2", ChunkIndex: 0}, "the lazy brown dog sleeps")

	idx.DeletePage("p1")

	stats := idx.Stats()
	require.Equal(t, 1, stats.TotalDocuments)

	for term, list := range idx.postings {
		for _, p := range list {
			require.NotEqual(t, "p1", p.Key.PageID, "term %q still references deleted page", term)
		}
	}
	_, ok := idx.docLen[PassageKey{PageID: "p1", ChunkIndex: 0}]
	require.False(t, ok)
}

func TestInvertedIndexScoringFavorsHigherTermFrequency(t *testing.T) {
	idx := NewInvertedIndex(DefaultBM25Config())
	idx.Index(PassageKey{PageID: "p1", ChunkIndex: 0}, "golang concurrency golang channels golang goroutines")
	idx.Index(PassageKey{PageID: "p2", ChunkIndex: 0}, "golang is a language")

	results := idx.Search("golang", 10)
	require.Len(t, results, 2)
	require.Equal(t, "p1", results[0].Key.PageID)
}

func TestInvertedIndexSearchEmptyQueryYieldsEmptyResult(t *testing.T) {
	idx := NewInvertedIndex(DefaultBM25Config())
	idx.Index(PassageKey{PageID: "p1", ChunkIndex: 0}, "some text here")

	results := idx.Search("to", 10) // tokenizes to nothing (len <= 2)
	require.Empty(t, results)
}

func TestInvertedIndexSaveLoadRoundTrip(t *testing.T) {
	idx := NewInvertedIndex(DefaultBM25Config())
	idx.Index(PassageKey{PageID: "p1", ChunkIndex: 0}, "alpha beta gamma")
	idx.Index(PassageKey{PageID: "p1", ChunkIndex: 1}, "beta gamma delta")

	dir := t.TempDir()
	path := filepath.Join(dir, "inverted")
	require.NoError(t, idx.Save(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadInvertedIndex(path, DefaultBM25Config())
	require.NoError(t, err)

	before := idx.Stats()
	after := loaded.Stats()
	require.Equal(t, before.TotalDocuments, after.TotalDocuments)
	require.Equal(t, before.TermCount, after.TermCount)
	require.InDelta(t, before.AverageDocumentLength, after.AverageDocumentLength, 0.0001)

	r1 := idx.Search("beta gamma", 10)
	r2 := loaded.Search("beta gamma", 10)
	require.Equal(t, len(r1), len(r2))
}
