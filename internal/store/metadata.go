package store

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/webindex/webindex/internal/errors"
)

// metaFile is the on-disk shape of pages.meta, matching §6 exactly:
// top-level "pages" map and a secondary "url_index" map.
type metaFile struct {
	Pages    map[string]*PageRecord `json:"pages"`
	URLIndex map[string]string      `json:"url_index"`
}

// MetadataStore holds the PageRecord map, backed by pages.meta.
type MetadataStore struct {
	mu       sync.RWMutex
	path     string
	pages    map[string]*PageRecord
	urlIndex map[string]string
}

// NewMetadataStore loads pages.meta from path if present, or starts empty.
func NewMetadataStore(path string) (*MetadataStore, error) {
	m := &MetadataStore{
		path:     path,
		pages:    make(map[string]*PageRecord),
		urlIndex: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, errors.StorageError("failed to read "+path, err)
	}
	if len(data) == 0 {
		return m, nil
	}

	var mf metaFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, errors.New(errors.ErrCodeIndexCorrupt, "pages.meta is corrupt", err)
	}
	for id, rec := range mf.Pages {
		rec.PageID = id
		m.pages[id] = rec
	}
	if mf.URLIndex != nil {
		m.urlIndex = mf.URLIndex
	}
	return m, nil
}

// Get returns the PageRecord for a page_id.
func (m *MetadataStore) Get(pageID string) (*PageRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.pages[pageID]
	return rec, ok
}

// GetByURL returns the PageRecord already indexed for a URL, implementing
// ingest idempotence (§4.9, §8 property 6).
func (m *MetadataStore) GetByURL(url string) (*PageRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.urlIndex[url]
	if !ok {
		return nil, false
	}
	rec, ok := m.pages[id]
	return rec, ok
}

// Put adds or replaces a PageRecord and persists the store atomically. It
// is the last step of the ingest write discipline (§4.9).
func (m *MetadataStore) Put(rec *PageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[rec.PageID] = rec
	m.urlIndex[rec.URL] = rec.PageID
	return m.saveLocked()
}

// Delete removes a PageRecord and its URL index entry, persisting the
// result.
func (m *MetadataStore) Delete(pageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.pages[pageID]
	if !ok {
		return nil
	}
	delete(m.pages, pageID)
	if m.urlIndex[rec.URL] == pageID {
		delete(m.urlIndex, rec.URL)
	}
	return m.saveLocked()
}

// All returns every PageRecord, in no particular order.
func (m *MetadataStore) All() []*PageRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*PageRecord, 0, len(m.pages))
	for _, rec := range m.pages {
		out = append(out, rec)
	}
	return out
}

// Count returns the number of pages.
func (m *MetadataStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pages)
}

func (m *MetadataStore) saveLocked() error {
	mf := metaFile{
		Pages:    m.pages,
		URLIndex: m.urlIndex,
	}
	data, err := json.MarshalIndent(&mf, "", "  ")
	if err != nil {
		return errors.StorageError("failed to marshal pages.meta", err)
	}
	return writeFileAtomic(m.path, data)
}
