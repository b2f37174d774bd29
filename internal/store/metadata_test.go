package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetadataStorePutAndGetByURL(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMetadataStore(filepath.Join(dir, "pages.meta"))
	require.NoError(t, err)

	rec := &PageRecord{PageID: "page1", URL: "https://example.com/a", Title: "A", ChunkCount: 3, EmbeddingDim: 384}
	require.NoError(t, m.Put(rec))

	got, ok := m.GetByURL("https://example.com/a")
	require.True(t, ok)
	require.Equal(t, "page1", got.PageID)
}

func TestMetadataStorePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.meta")
	m, err := NewMetadataStore(path)
	require.NoError(t, err)
	require.NoError(t, m.Put(&PageRecord{PageID: "page1", URL: "https://example.com/a", Title: "A"}))

	reloaded, err := NewMetadataStore(path)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Count())

	rec, ok := reloaded.Get("page1")
	require.True(t, ok)
	require.Equal(t, "https://example.com/a", rec.URL)
}

func TestMetadataStoreDeleteClearsURLIndex(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMetadataStore(filepath.Join(dir, "pages.meta"))
	require.NoError(t, err)
	require.NoError(t, m.Put(&PageRecord{PageID: "page1", URL: "https://example.com/a"}))

	require.NoError(t, m.Delete("page1"))

	_, ok := m.Get("page1")
	require.False(t, ok)
	_, ok = m.GetByURL("https://example.com/a")
	require.False(t, ok)
}
