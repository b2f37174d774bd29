package store

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/webindex/webindex/internal/errors"
)

// VectorStore persists and brute-force-searches dense embeddings. Deliberately
// NOT an approximate index (no HNSW): the spec forbids assuming one at this
// corpus scale (§4.7).
//
// Append-only at page granularity: one writer per page at a time via a
// per-page_id lock (§5); searches take only the shared read lock over the
// in-memory page map, since a committed page's vectors are not changed once
// written.
type VectorStore struct {
	dir string
	dim int

	mu     sync.RWMutex
	byPage map[string][][]float32

	pageLocksMu sync.Mutex
	pageLocks   map[string]*sync.Mutex
}

// NewVectorStore loads every vectors/*.bin file under dataRoot into memory.
func NewVectorStore(dataRoot string, dim int) (*VectorStore, error) {
	vs := &VectorStore{
		dir:       filepath.Join(dataRoot, "vectors"),
		dim:       dim,
		byPage:    make(map[string][][]float32),
		pageLocks: make(map[string]*sync.Mutex),
	}

	entries, err := os.ReadDir(vs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return vs, nil
		}
		return nil, errors.StorageError("failed to list vectors directory", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		const suffix = ".bin"
		if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
			continue
		}
		pageID := name[:len(name)-len(suffix)]
		vectors, err := readVectorBlob(filepath.Join(vs.dir, name))
		if err != nil {
			return nil, err
		}
		vs.byPage[pageID] = vectors
	}
	return vs, nil
}

func (vs *VectorStore) path(pageID string) string {
	return filepath.Join(vs.dir, pageID+".bin")
}

func (vs *VectorStore) pageLock(pageID string) *sync.Mutex {
	vs.pageLocksMu.Lock()
	defer vs.pageLocksMu.Unlock()
	l, ok := vs.pageLocks[pageID]
	if !ok {
		l = &sync.Mutex{}
		vs.pageLocks[pageID] = l
	}
	return l
}

// Add writes a page's vectors to disk and makes them visible for search.
func (vs *VectorStore) Add(pageID string, vectors [][]float32) error {
	lock := vs.pageLock(pageID)
	lock.Lock()
	defer lock.Unlock()

	for _, v := range vectors {
		if len(v) != vs.dim {
			return errors.New(errors.ErrCodeDimensionMismatch, "vector dimension mismatch", &ErrDimensionMismatch{Expected: vs.dim, Got: len(v)})
		}
	}

	data := encodeVectorBlob(vectors)
	if err := writeFileAtomic(vs.path(pageID), data); err != nil {
		return err
	}

	vs.mu.Lock()
	vs.byPage[pageID] = vectors
	vs.mu.Unlock()
	return nil
}

// Delete removes a page's vectors file and in-memory entry.
func (vs *VectorStore) Delete(pageID string) error {
	lock := vs.pageLock(pageID)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(vs.path(pageID))
	if err != nil && !os.IsNotExist(err) {
		return errors.StorageError("failed to delete vectors for "+pageID, err)
	}

	vs.mu.Lock()
	delete(vs.byPage, pageID)
	vs.mu.Unlock()
	return nil
}

// Search performs brute-force cosine similarity search across every
// persisted vector and returns the top k.
func (vs *VectorStore) Search(query []float32, k int) []VectorResult {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	qNorm := magnitude(query)
	var results []VectorResult
	for pageID, vectors := range vs.byPage {
		for chunkIndex, v := range vectors {
			if len(v) != len(query) {
				continue
			}
			sim := cosineSimilarity(query, v, qNorm)
			results = append(results, VectorResult{
				Key:        PassageKey{PageID: pageID, ChunkIndex: chunkIndex},
				Similarity: sim,
			})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// PageIDs lists every page with persisted vectors.
func (vs *VectorStore) PageIDs() []string {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	ids := make([]string, 0, len(vs.byPage))
	for id := range vs.byPage {
		ids = append(ids, id)
	}
	return ids
}

func cosineSimilarity(a, b []float32, aNorm float64) float32 {
	bNorm := magnitude(b)
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (aNorm * bNorm))
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// encodeVectorBlob packs vectors as an 8-byte header (vector_count,
// vector_size, little-endian u32) followed by little-endian float32 values,
// row-major (§6).
func encodeVectorBlob(vectors [][]float32) []byte {
	count := len(vectors)
	size := 0
	if count > 0 {
		size = len(vectors[0])
	}

	buf := make([]byte, 8+count*size*4)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(count))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(size))

	offset := 8
	for _, v := range vectors {
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf[offset:offset+4], math.Float32bits(f))
			offset += 4
		}
	}
	return buf
}

func readVectorBlob(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.StorageError("failed to read vector blob "+path, err)
	}
	if len(data) < 8 {
		return nil, errors.New(errors.ErrCodeIndexCorrupt, "vector blob too short: "+path, nil)
	}

	count := int(binary.LittleEndian.Uint32(data[0:4]))
	size := int(binary.LittleEndian.Uint32(data[4:8]))
	want := 8 + count*size*4
	if len(data) < want {
		return nil, errors.New(errors.ErrCodeIndexCorrupt, "vector blob truncated: "+path, nil)
	}

	vectors := make([][]float32, count)
	offset := 8
	for i := 0; i < count; i++ {
		v := make([]float32, size)
		for j := 0; j < size; j++ {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
		}
		vectors[i] = v
	}
	return vectors, nil
}
