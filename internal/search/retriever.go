// Package search implements the Hybrid Retriever: parallel BM25 and dense
// dispatch fused by Reciprocal Rank Fusion (§4.8).
package search

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/webindex/webindex/internal/config"
	"github.com/webindex/webindex/internal/store"
)

// DefaultRRFConstant is the spec's default RRF smoothing parameter (§4.8).
const DefaultRRFConstant = 60

// Embedder is the subset of the Embedding Engine the Retriever needs to
// turn a query string into a vector for dense search.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ScoredHit is one ranked passage returned to the caller (§6 Query API).
type ScoredHit struct {
	PageID    string
	PageTitle string
	PageURL   string
	ChunkID   string
	ChunkText string
	Score     float64
	Timestamp int64
}

// Retriever combines the BM25 index and the vector store into the three
// selectable search modes: dense, bm25, hybrid.
type Retriever struct {
	index    *store.InvertedIndex
	vectors  *store.VectorStore
	meta     *store.MetadataStore
	chunks   *store.ChunkStore
	embedder Embedder

	rrfConstant       int
	perModeCandidates int
}

// New builds a Retriever over the given stores and embedder.
func New(index *store.InvertedIndex, vectors *store.VectorStore, meta *store.MetadataStore, chunks *store.ChunkStore, embedder Embedder, rrfConstant, perModeCandidates int) *Retriever {
	if rrfConstant <= 0 {
		rrfConstant = DefaultRRFConstant
	}
	if perModeCandidates <= 0 {
		perModeCandidates = 50
	}
	return &Retriever{
		index:             index,
		vectors:           vectors,
		meta:              meta,
		chunks:            chunks,
		embedder:          embedder,
		rrfConstant:       rrfConstant,
		perModeCandidates: perModeCandidates,
	}
}

// Search dispatches to the selected mode and returns up to limit hits.
func (r *Retriever) Search(ctx context.Context, query string, limit int, mode config.SearchMode) ([]ScoredHit, error) {
	switch mode {
	case config.SearchModeBM25:
		bm25Results := r.index.Search(query, limit)
		return r.hydrate(bm25ToPassages(bm25Results), limit), nil

	case config.SearchModeDense:
		vec, err := r.embedder.EmbedText(ctx, query)
		if err != nil {
			return nil, err
		}
		vecResults := r.vectors.Search(vec, limit)
		return r.hydrate(vectorToPassages(vecResults), limit), nil

	default: // hybrid
		return r.hybridSearch(ctx, query, limit)
	}
}

func (r *Retriever) hybridSearch(ctx context.Context, query string, limit int) ([]ScoredHit, error) {
	var bm25Results []*store.BM25Result
	var vecResults []store.VectorResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bm25Results = toPtrSlice(r.index.Search(query, r.perModeCandidates))
		return nil
	})
	g.Go(func() error {
		vec, err := r.embedder.EmbedText(gctx, query)
		if err != nil {
			return err
		}
		vecResults = r.vectors.Search(vec, r.perModeCandidates)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := r.fuse(bm25Results, vecResults)
	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}
	return r.hydrate(fused, limit), nil
}

// fusedPassage is an intermediate passage key plus its fused RRF score,
// before metadata/text hydration.
type fusedPassage struct {
	key      store.PassageKey
	score    float64
	bm25Rank int // 1-indexed; 0 if absent from the BM25 list
}

// fuse implements Reciprocal Rank Fusion, generalized from the teacher's
// internal/search/fusion.go RRFFusion.Fuse. Per SPEC_FULL.md §4.8 this
// spec's tiebreak is narrower than the teacher's and wins: BM25 rank
// ascending, then passage key ascending — NOT the teacher's
// RRFScore→InBothLists→BM25Score→ChunkID order.
func (r *Retriever) fuse(bm25 []*store.BM25Result, vec []store.VectorResult) []fusedPassage {
	scores := make(map[store.PassageKey]*fusedPassage)

	for rank, res := range bm25 {
		fp, ok := scores[res.Key]
		if !ok {
			fp = &fusedPassage{key: res.Key}
			scores[res.Key] = fp
		}
		fp.bm25Rank = rank + 1
		fp.score += 1.0 / float64(r.rrfConstant+rank)
	}
	for rank, res := range vec {
		fp, ok := scores[res.Key]
		if !ok {
			fp = &fusedPassage{key: res.Key}
			scores[res.Key] = fp
		}
		fp.score += 1.0 / float64(r.rrfConstant+rank)
	}

	out := make([]fusedPassage, 0, len(scores))
	for _, fp := range scores {
		out = append(out, *fp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		ri, rj := out[i].bm25Rank, out[j].bm25Rank
		if ri == 0 {
			ri = len(bm25) + len(vec) + 1
		}
		if rj == 0 {
			rj = len(bm25) + len(vec) + 1
		}
		if ri != rj {
			return ri < rj
		}
		return out[i].key.String() < out[j].key.String()
	})

	return out
}

// hydrate resolves passage keys to full ScoredHit records by reading page
// metadata and chunk text, preserving input order.
func (r *Retriever) hydrate(passages []fusedPassage, limit int) []ScoredHit {
	hits := make([]ScoredHit, 0, len(passages))
	chunkCache := make(map[string][]store.PassageRecord)

	for _, p := range passages {
		rec, ok := r.meta.Get(p.key.PageID)
		if !ok {
			continue
		}
		records, cached := chunkCache[p.key.PageID]
		if !cached {
			loaded, err := r.chunks.Load(p.key.PageID)
			if err != nil {
				continue
			}
			records = loaded
			chunkCache[p.key.PageID] = records
		}
		if p.key.ChunkIndex < 0 || p.key.ChunkIndex >= len(records) {
			continue
		}
		pr := records[p.key.ChunkIndex]

		hits = append(hits, ScoredHit{
			PageID:    rec.PageID,
			PageTitle: rec.Title,
			PageURL:   rec.URL,
			ChunkID:   pr.ID,
			ChunkText: pr.Text,
			Score:     p.score,
			Timestamp: rec.CapturedAt,
		})
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits
}

func bm25ToPassages(results []*store.BM25Result) []fusedPassage {
	out := make([]fusedPassage, len(results))
	for i, r := range results {
		out[i] = fusedPassage{key: r.Key, score: r.Score, bm25Rank: i + 1}
	}
	return out
}

func vectorToPassages(results []store.VectorResult) []fusedPassage {
	out := make([]fusedPassage, len(results))
	for i, r := range results {
		out[i] = fusedPassage{key: r.Key, score: float64(r.Similarity)}
	}
	return out
}

func toPtrSlice(results []store.BM25Result) []*store.BM25Result {
	out := make([]*store.BM25Result, len(results))
	for i := range results {
		out[i] = &results[i]
	}
	return out
}
