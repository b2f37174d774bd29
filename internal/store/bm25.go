package store

import (
	"encoding/json"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/webindex/webindex/internal/errors"
)

// parsePassageKey parses a "page_id:chunk_index" doc_key back into a
// PassageKey. page_id values never contain ':' (see the Orchestrator's id
// derivation), so splitting on the last ':' is unambiguous.
func parsePassageKey(docKey string) (PassageKey, bool) {
	i := strings.LastIndex(docKey, ":")
	if i < 0 {
		return PassageKey{}, false
	}
	chunkIndex, err := strconv.Atoi(docKey[i+1:])
	if err != nil {
		return PassageKey{}, false
	}
	return PassageKey{PageID: docKey[:i], ChunkIndex: chunkIndex}, true
}

// posting is one (term -> passage) occurrence record.
type posting struct {
	Key       PassageKey
	TermFreq  int
	Positions []int
}

// InvertedIndex is the hand-rolled, process-wide BM25 lexical index (§4.6).
// No bleve/FTS5 backend (see DESIGN.md): plain Go maps guarded by a single
// RWMutex, matching §5's "many readers or one exclusive writer" contract.
type InvertedIndex struct {
	cfg BM25Config

	mu        sync.RWMutex
	postings  map[string][]posting
	docFreq   map[string]int
	docLen    map[PassageKey]int
	insertSeq map[PassageKey]int
	nextSeq   int
	sumDocLen int
	totalDocs int
}

// NewInvertedIndex builds an empty index with the given BM25 parameters.
func NewInvertedIndex(cfg BM25Config) *InvertedIndex {
	return &InvertedIndex{
		cfg:       cfg,
		postings:  make(map[string][]posting),
		docFreq:   make(map[string]int),
		docLen:    make(map[PassageKey]int),
		insertSeq: make(map[PassageKey]int),
	}
}

// Index tokenizes a passage's text with the BM25 tokenizer and records its
// postings. Re-indexing an already-present key first removes its prior
// postings, so rebuild operations are idempotent.
func (idx *InvertedIndex) Index(key PassageKey, text string) {
	tokens := bm25Tokenize(text, idx.cfg.MinTokenLength)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.docLen[key]; exists {
		idx.removeKeyLocked(key)
	}

	termFreq := make(map[string]int)
	termPositions := make(map[string][]int)
	for pos, t := range tokens {
		termFreq[t]++
		termPositions[t] = append(termPositions[t], pos)
	}

	for term, tf := range termFreq {
		idx.postings[term] = append(idx.postings[term], posting{
			Key:       key,
			TermFreq:  tf,
			Positions: termPositions[term],
		})
		idx.docFreq[term]++
	}

	idx.docLen[key] = len(tokens)
	idx.sumDocLen += len(tokens)
	idx.totalDocs++
	idx.insertSeq[key] = idx.nextSeq
	idx.nextSeq++
}

// DeletePage removes every passage belonging to pageID, reversing their
// postings/doc_freq/doc_len/total_docs contributions atomically.
func (idx *InvertedIndex) DeletePage(pageID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var keys []PassageKey
	for key := range idx.docLen {
		if key.PageID == pageID {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		idx.removeKeyLocked(key)
	}
}

// removeKeyLocked must be called with idx.mu held for writing.
func (idx *InvertedIndex) removeKeyLocked(key PassageKey) {
	dl, ok := idx.docLen[key]
	if !ok {
		return
	}

	for term, list := range idx.postings {
		kept := list[:0]
		removed := false
		for _, p := range list {
			if p.Key == key {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		if removed {
			idx.docFreq[term]--
			if len(kept) == 0 {
				delete(idx.postings, term)
				delete(idx.docFreq, term)
			} else {
				idx.postings[term] = kept
			}
		}
	}

	delete(idx.docLen, key)
	delete(idx.insertSeq, key)
	idx.sumDocLen -= dl
	idx.totalDocs--
}

// avgDocLen returns the current average document length, 0 if empty. Caller
// must hold idx.mu.
func (idx *InvertedIndex) avgDocLenLocked() float64 {
	if idx.totalDocs == 0 {
		return 0
	}
	return float64(idx.sumDocLen) / float64(idx.totalDocs)
}

// Search tokenizes query with the BM25 tokenizer and returns the top k
// passages by Okapi BM25 score. Ties break by insertion order (§4.6).
func (idx *InvertedIndex) Search(query string, k int) []BM25Result {
	tokens := bm25Tokenize(query, idx.cfg.MinTokenLength)
	if len(tokens) == 0 {
		return nil
	}

	idx.mu.RLock()
	N := idx.totalDocs
	avgDL := idx.avgDocLenLocked()

	type accum struct {
		score float64
		terms map[string]bool
	}
	scores := make(map[PassageKey]*accum)
	seqs := make(map[PassageKey]int)

	seen := make(map[string]bool)
	for _, term := range tokens {
		if seen[term] {
			continue
		}
		seen[term] = true

		df := idx.docFreq[term]
		if df == 0 {
			continue
		}
		idf := math.Log((float64(N)-float64(df)+0.5)/(float64(df)+0.5) + 1)

		for _, p := range idx.postings[term] {
			dl := idx.docLen[p.Key]
			tfComponent := float64(p.TermFreq) * (idx.cfg.K1 + 1) /
				(float64(p.TermFreq) + idx.cfg.K1*(1-idx.cfg.B+idx.cfg.B*float64(dl)/avgDL))

			a, ok := scores[p.Key]
			if !ok {
				a = &accum{terms: make(map[string]bool)}
				scores[p.Key] = a
				seqs[p.Key] = idx.insertSeq[p.Key]
			}
			a.score += idf * tfComponent
			a.terms[term] = true
		}
	}

	idx.mu.RUnlock()

	results := make([]BM25Result, 0, len(scores))
	for key, a := range scores {
		matched := make([]string, 0, len(a.terms))
		for t := range a.terms {
			matched = append(matched, t)
		}
		sort.Strings(matched)
		results = append(results, BM25Result{Key: key, Score: a.score, MatchedTerms: matched})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return seqs[results[i].Key] < seqs[results[j].Key]
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

// pagesReferenced returns the distinct page_ids with at least one indexed
// passage, used for orphan reaping.
func (idx *InvertedIndex) pagesReferenced() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	seen := make(map[string]bool)
	var ids []string
	for key := range idx.docLen {
		if !seen[key.PageID] {
			seen[key.PageID] = true
			ids = append(ids, key.PageID)
		}
	}
	return ids
}

// Stats summarizes the index for the Orchestrator's stats() operation.
func (idx *InvertedIndex) Stats() IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return IndexStats{
		TotalDocuments:        idx.totalDocs,
		TermCount:             len(idx.postings),
		AverageDocumentLength: idx.avgDocLenLocked(),
	}
}

// --- persistence, matching §6's exact schema ---

type persistedPosting struct {
	PageID     string `json:"page_id"`
	ChunkIndex int    `json:"chunk_index"`
	TermFreq   int    `json:"term_freq"`
	Positions  []int  `json:"positions"`
}

type persistedTermPostings struct {
	Term     string             `json:"term"`
	Postings []persistedPosting `json:"postings"`
}

type persistedDocFreq struct {
	Term string `json:"term"`
	Freq int    `json:"freq"`
}

type persistedDocLength struct {
	DocKey string `json:"doc_key"`
	Length int    `json:"length"`
}

type persistedIndex struct {
	InvertedIndex         []persistedTermPostings `json:"inverted_index"`
	DocumentFrequency     []persistedDocFreq      `json:"document_frequency"`
	DocumentLengths       []persistedDocLength    `json:"document_lengths"`
	AverageDocumentLength float64                 `json:"average_document_length"`
	TotalDocuments        int                     `json:"total_documents"`
}

// Save persists the index to path using the write-to-temp-then-rename
// discipline (§4.9).
func (idx *InvertedIndex) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	p := persistedIndex{
		AverageDocumentLength: idx.avgDocLenLocked(),
		TotalDocuments:        idx.totalDocs,
	}
	for term, list := range idx.postings {
		pps := make([]persistedPosting, len(list))
		for i, post := range list {
			pps[i] = persistedPosting{
				PageID:     post.Key.PageID,
				ChunkIndex: post.Key.ChunkIndex,
				TermFreq:   post.TermFreq,
				Positions:  post.Positions,
			}
		}
		p.InvertedIndex = append(p.InvertedIndex, persistedTermPostings{Term: term, Postings: pps})
	}
	for term, freq := range idx.docFreq {
		p.DocumentFrequency = append(p.DocumentFrequency, persistedDocFreq{Term: term, Freq: freq})
	}
	for key, length := range idx.docLen {
		p.DocumentLengths = append(p.DocumentLengths, persistedDocLength{DocKey: key.String(), Length: length})
	}
	sort.Slice(p.DocumentLengths, func(i, j int) bool {
		ki, _ := parsePassageKey(p.DocumentLengths[i].DocKey)
		kj, _ := parsePassageKey(p.DocumentLengths[j].DocKey)
		return idx.insertSeq[ki] < idx.insertSeq[kj]
	})

	data, err := json.MarshalIndent(&p, "", "  ")
	if err != nil {
		return errors.StorageError("failed to marshal inverted index", err)
	}
	return writeFileAtomic(path, data)
}

// LoadInvertedIndex loads a persisted index, or returns a fresh empty index
// if path does not exist. A corrupt file surfaces ErrCodeIndexCorrupt so the
// Orchestrator can trigger rebuild_lexical_index() (§7).
func LoadInvertedIndex(path string, cfg BM25Config) (*InvertedIndex, error) {
	idx := NewInvertedIndex(cfg)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, errors.StorageError("failed to read inverted index at "+path, err)
	}
	if len(data) == 0 {
		return idx, nil
	}

	var p persistedIndex
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.New(errors.ErrCodeIndexCorrupt, "inverted index file is corrupt", err)
	}

	for _, tp := range p.InvertedIndex {
		list := make([]posting, len(tp.Postings))
		for i, pp := range tp.Postings {
			list[i] = posting{
				Key:       PassageKey{PageID: pp.PageID, ChunkIndex: pp.ChunkIndex},
				TermFreq:  pp.TermFreq,
				Positions: pp.Positions,
			}
		}
		idx.postings[tp.Term] = list
	}
	for _, df := range p.DocumentFrequency {
		idx.docFreq[df.Term] = df.Freq
	}
	seq := 0
	for _, dl := range p.DocumentLengths {
		key, ok := parsePassageKey(dl.DocKey)
		if !ok {
			continue
		}
		idx.docLen[key] = dl.Length
		idx.insertSeq[key] = seq
		seq++
	}
	idx.nextSeq = seq
	idx.sumDocLen = 0
	for _, l := range idx.docLen {
		idx.sumDocLen += l
	}
	idx.totalDocs = p.TotalDocuments

	return idx, nil
}
