package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webindex/webindex/internal/chunk"
)

func TestChunkStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cs := NewChunkStore(dir)

	passages := []chunk.Passage{
		{ChunkIndex: 0, TokenIDs: []int{101, 5, 6, 102}, TokenCount: 4, Text: "a b", StartTokenIndex: 0, EndTokenIndex: 2},
		{ChunkIndex: 1, TokenIDs: []int{101, 6, 7, 102}, TokenCount: 4, Text: "b c", StartTokenIndex: 1, EndTokenIndex: 3},
	}
	require.NoError(t, cs.Save("page1", passages))
	require.True(t, cs.Exists("page1"))

	records, err := cs.Load("page1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "chunk_0", records[0].ID)
	require.Equal(t, "chunk_1", records[1].ID)
	require.Equal(t, "b c", records[1].Text)
}

func TestChunkStoreDeleteAndPageIDs(t *testing.T) {
	dir := t.TempDir()
	cs := NewChunkStore(dir)
	require.NoError(t, cs.Save("page1", []chunk.Passage{{ChunkIndex: 0, TokenIDs: []int{101, 102}}}))
	require.NoError(t, cs.Save("page2", []chunk.Passage{{ChunkIndex: 0, TokenIDs: []int{101, 102}}}))

	ids, err := cs.PageIDs()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"page1", "page2"}, ids)

	require.NoError(t, cs.Delete("page1"))
	require.False(t, cs.Exists("page1"))
}
