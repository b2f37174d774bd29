package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/webindex/webindex/internal/chunk"
	"github.com/webindex/webindex/internal/errors"
)

// ChunkStore persists passages as ordered chunks/{page_id}.json arrays.
type ChunkStore struct {
	dir string
}

// NewChunkStore builds a ChunkStore rooted at dataRoot/chunks.
func NewChunkStore(dataRoot string) *ChunkStore {
	return &ChunkStore{dir: filepath.Join(dataRoot, "chunks")}
}

func (s *ChunkStore) path(pageID string) string {
	return filepath.Join(s.dir, pageID+".json")
}

// Save writes a page's passages as an ordered PassageRecord array.
func (s *ChunkStore) Save(pageID string, passages []chunk.Passage) error {
	records := make([]PassageRecord, len(passages))
	for i, p := range passages {
		records[i] = PassageRecord{
			ID:              fmt.Sprintf("chunk_%d", p.ChunkIndex),
			Tokens:          p.TokenIDs,
			TokenCount:      p.TokenCount,
			Text:            p.Text,
			StartTokenIndex: p.StartTokenIndex,
			EndTokenIndex:   p.EndTokenIndex,
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.StorageError("failed to marshal chunks for "+pageID, err)
	}
	return writeFileAtomic(s.path(pageID), data)
}

// Load reads back a page's passages.
func (s *ChunkStore) Load(pageID string) ([]PassageRecord, error) {
	data, err := os.ReadFile(s.path(pageID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageError("failed to read chunks for "+pageID, err)
	}
	var records []PassageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.New(errors.ErrCodeIndexCorrupt, "chunks file for "+pageID+" is corrupt", err)
	}
	return records, nil
}

// Delete removes a page's chunks file.
func (s *ChunkStore) Delete(pageID string) error {
	err := os.Remove(s.path(pageID))
	if err != nil && !os.IsNotExist(err) {
		return errors.StorageError("failed to delete chunks for "+pageID, err)
	}
	return nil
}

// Exists reports whether a page has a persisted chunks file.
func (s *ChunkStore) Exists(pageID string) bool {
	_, err := os.Stat(s.path(pageID))
	return err == nil
}

// PageIDs lists every page_id with a persisted chunks file, used for
// orphan reaping and index rebuild.
func (s *ChunkStore) PageIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageError("failed to list chunks directory", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		const suffix = ".json"
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			ids = append(ids, name[:len(name)-len(suffix)])
		}
	}
	return ids, nil
}
