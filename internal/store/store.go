package store

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/webindex/webindex/internal/errors"
)

// parsePassageKeyFromChunkID builds a PassageKey from a page_id and a
// "chunk_<index>" id, the chunks-file schema's id field (§6).
func parsePassageKeyFromChunkID(pageID, chunkID string) (PassageKey, bool) {
	const prefix = "chunk_"
	if !strings.HasPrefix(chunkID, prefix) {
		return PassageKey{}, false
	}
	idx, err := strconv.Atoi(chunkID[len(prefix):])
	if err != nil {
		return PassageKey{}, false
	}
	return PassageKey{PageID: pageID, ChunkIndex: idx}, true
}

// dirSize sums the size of every regular file under dir, recursively.
func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Store composes the four on-disk stores (pages.meta, chunks, vectors, the
// inverted index) that the Orchestrator mutates together during ingest and
// deletion (§4.9).
type Store struct {
	DataRoot string
	Meta     *MetadataStore
	Chunks   *ChunkStore
	Vectors  *VectorStore
	Index    *InvertedIndex

	indexPath string
}

// Open loads all four stores from dataRoot, reaping orphans left behind by
// a crash mid-ingest (§4.9): any chunks/vectors file without a pages.meta
// entry is deleted, and any index postings referring to a missing page are
// pruned.
func Open(dataRoot string, embeddingDim int, bm25cfg BM25Config) (*Store, error) {
	meta, err := NewMetadataStore(filepath.Join(dataRoot, "pages.meta"))
	if err != nil {
		return nil, err
	}
	chunks := NewChunkStore(dataRoot)
	vectors, err := NewVectorStore(dataRoot, embeddingDim)
	if err != nil {
		return nil, err
	}
	indexPath := filepath.Join(dataRoot, "index", "inverted")
	index, err := LoadInvertedIndex(indexPath, bm25cfg)
	rebuild := false
	if err != nil {
		// Index corruption triggers rebuild rather than failing startup (§7).
		index = NewInvertedIndex(bm25cfg)
		rebuild = true
	}

	s := &Store{
		DataRoot:  dataRoot,
		Meta:      meta,
		Chunks:    chunks,
		Vectors:   vectors,
		Index:     index,
		indexPath: indexPath,
	}

	if rebuild {
		if err := s.RebuildLexicalIndex(); err != nil {
			return nil, err
		}
	}
	if err := s.reapOrphans(); err != nil {
		return nil, err
	}
	return s, nil
}

// reapOrphans deletes chunks/vectors files with no corresponding
// pages.meta entry, and prunes index postings referring to missing pages.
func (s *Store) reapOrphans() error {
	chunkIDs, err := s.Chunks.PageIDs()
	if err != nil {
		return err
	}
	for _, id := range chunkIDs {
		if _, ok := s.Meta.Get(id); !ok {
			if err := s.Chunks.Delete(id); err != nil {
				return err
			}
		}
	}

	for _, id := range s.Vectors.PageIDs() {
		if _, ok := s.Meta.Get(id); !ok {
			if err := s.Vectors.Delete(id); err != nil {
				return err
			}
		}
	}

	known := make(map[string]bool)
	for _, rec := range s.Meta.All() {
		known[rec.PageID] = true
	}
	for _, id := range s.Index.pagesReferenced() {
		if !known[id] {
			s.Index.DeletePage(id)
		}
	}
	return s.Index.Save(s.indexPath)
}

// DeletePage removes a PageRecord, its chunks, its vectors, and all index
// postings touching the page, persisting the pruned index (§4.10).
func (s *Store) DeletePage(pageID string) error {
	s.Index.DeletePage(pageID)
	if err := s.SaveIndex(); err != nil {
		return err
	}
	if err := s.Vectors.Delete(pageID); err != nil {
		return err
	}
	if err := s.Chunks.Delete(pageID); err != nil {
		return err
	}
	return s.Meta.Delete(pageID)
}

// SaveIndex persists the inverted index to its configured path.
func (s *Store) SaveIndex() error {
	return s.Index.Save(s.indexPath)
}

// RebuildLexicalIndex reconstructs the inverted index from persisted
// passages without touching embeddings (§4.10).
func (s *Store) RebuildLexicalIndex() error {
	fresh := NewInvertedIndex(s.Index.cfg)
	for _, rec := range s.Meta.All() {
		records, err := s.Chunks.Load(rec.PageID)
		if err != nil {
			return err
		}
		for _, pr := range records {
			key, ok := parsePassageKeyFromChunkID(rec.PageID, pr.ID)
			if !ok {
				continue
			}
			fresh.Index(key, pr.Text)
		}
	}
	s.Index = fresh
	return s.SaveIndex()
}

// BytesOnDisk sums the size of every file under the data root (the four
// stores, plus anything else kept there such as the model directory), for
// the Orchestrator's stats() operation.
func (s *Store) BytesOnDisk() (int64, error) {
	var total int64
	for _, dir := range []string{
		s.DataRoot,
	} {
		size, err := dirSize(dir)
		if err != nil {
			return 0, errors.StorageError("failed to stat data root", err)
		}
		total += size
	}
	return total, nil
}
