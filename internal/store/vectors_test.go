package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVectorStoreAddAndSearchFindsNearestByCosine(t *testing.T) {
	dir := t.TempDir()
	vs, err := NewVectorStore(dir, 3)
	require.NoError(t, err)

	require.NoError(t, vs.Add("p1", [][]float32{{1, 0, 0}, {0, 1, 0}}))
	require.NoError(t, vs.Add("p2", [][]float32{{0, 0, 1}}))

	results := vs.Search([]float32{1, 0, 0}, 2)
	require.Len(t, results, 2)
	require.Equal(t, PassageKey{PageID: "p1", ChunkIndex: 0}, results[0].Key)
	require.InDelta(t, 1.0, results[0].Similarity, 0.0001)
}

func TestVectorStorePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	vs, err := NewVectorStore(dir, 2)
	require.NoError(t, err)
	require.NoError(t, vs.Add("p1", [][]float32{{0.5, 0.25}, {0.75, 0.1}}))

	reloaded, err := NewVectorStore(dir, 2)
	require.NoError(t, err)
	require.Len(t, reloaded.PageIDs(), 1)

	results := reloaded.Search([]float32{0.5, 0.25}, 1)
	require.Len(t, results, 1)
	require.Equal(t, 0, results[0].Key.ChunkIndex)
}

func TestVectorStoreRejectsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	vs, err := NewVectorStore(dir, 3)
	require.NoError(t, err)

	err = vs.Add("p1", [][]float32{{1, 2}})
	require.Error(t, err)
}

func TestVectorStoreDeleteRemovesBlob(t *testing.T) {
	dir := t.TempDir()
	vs, err := NewVectorStore(dir, 2)
	require.NoError(t, err)
	require.NoError(t, vs.Add("p1", [][]float32{{1, 1}}))
	require.NoError(t, vs.Delete("p1"))
	require.Empty(t, vs.Search([]float32{1, 1}, 10))
}
