package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webindex/webindex/internal/chunk"
)

// S5: after delete_page, no blob, metadata entry, or posting references the page.
func TestStoreDeletePageRemovesEverything(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 3, DefaultBM25Config())
	require.NoError(t, err)

	require.NoError(t, s.Meta.Put(&PageRecord{PageID: "p1", URL: "https://example.com", ChunkCount: 1, EmbeddingDim: 3}))
	require.NoError(t, s.Chunks.Save("p1", []chunk.Passage{{ChunkIndex: 0, TokenIDs: []int{101, 1, 102}, Text: "hello world"}}))
	require.NoError(t, s.Vectors.Add("p1", [][]float32{{1, 0, 0}}))
	s.Index.Index(PassageKey{PageID: "p1", ChunkIndex: 0}, "hello world")
	require.NoError(t, s.SaveIndex())

	require.NoError(t, s.DeletePage("p1"))

	_, ok := s.Meta.Get("p1")
	require.False(t, ok)
	require.False(t, s.Chunks.Exists("p1"))
	require.Empty(t, s.Vectors.Search([]float32{1, 0, 0}, 10))
	require.Equal(t, 0, s.Index.Stats().TotalDocuments)
}

func TestOpenReapsOrphanedChunksAndVectors(t *testing.T) {
	dir := t.TempDir()

	// Simulate a crash mid-ingest: chunks/vectors written, pages.meta never
	// updated.
	cs := NewChunkStore(dir)
	require.NoError(t, cs.Save("orphan", []chunk.Passage{{ChunkIndex: 0, TokenIDs: []int{101, 102}}}))
	vs, err := NewVectorStore(dir, 2)
	require.NoError(t, err)
	require.NoError(t, vs.Add("orphan", [][]float32{{1, 1}}))

	s, err := Open(dir, 2, DefaultBM25Config())
	require.NoError(t, err)

	require.False(t, s.Chunks.Exists("orphan"))
	_, err = os.Stat(filepath.Join(dir, "vectors", "orphan.bin"))
	require.True(t, os.IsNotExist(err))
}

func TestRebuildLexicalIndexReconstructsFromPersistedPassages(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 2, DefaultBM25Config())
	require.NoError(t, err)

	require.NoError(t, s.Meta.Put(&PageRecord{PageID: "p1", URL: "https://example.com", ChunkCount: 1}))
	require.NoError(t, s.Chunks.Save("p1", []chunk.Passage{{ChunkIndex: 0, TokenIDs: []int{101, 102}, Text: "golang concurrency patterns"}}))

	require.NoError(t, s.RebuildLexicalIndex())

	results := s.Index.Search("concurrency", 10)
	require.Len(t, results, 1)
	require.Equal(t, "p1", results[0].Key.PageID)
}
