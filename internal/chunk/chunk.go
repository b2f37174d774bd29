// Package chunk partitions a document's content tokens into overlapping,
// fixed-size passages suitable for a 512-token model, and reconstructs
// readable text for each.
package chunk

import (
	"strings"

	"github.com/webindex/webindex/internal/errors"
	"github.com/webindex/webindex/internal/tokenize"
)

// Passage is a contiguous window of content tokens from one page, framed by
// [CLS]/[SEP], the unit of retrieval.
type Passage struct {
	ChunkIndex      int
	TokenIDs        []int
	TokenCount      int
	Text            string
	StartTokenIndex int
	EndTokenIndex   int
}

// Options configures the Chunker's window size and overlap, mirroring
// SPEC_FULL.md §4.4's max_content_tokens/overlap/stride parameters.
type Options struct {
	// MaxContentTokens is the model's max sequence length minus 2 (room for
	// [CLS]/[SEP]). Defaults to 510 (chunk_size=512).
	MaxContentTokens int
	// Overlap is the number of content tokens shared between consecutive
	// passages. Defaults to 50.
	Overlap int
}

// DefaultOptions returns the spec's default chunking parameters.
func DefaultOptions() Options {
	return Options{MaxContentTokens: 510, Overlap: 50}
}

// Chunker partitions tokenized text into overlapping passages.
type Chunker struct {
	tokenizer *tokenize.Tokenizer
	opts      Options
	stride    int
}

// NewChunker builds a Chunker from a Tokenizer and Options.
func NewChunker(tokenizer *tokenize.Tokenizer, opts Options) *Chunker {
	return &Chunker{
		tokenizer: tokenizer,
		opts:      opts,
		stride:    opts.MaxContentTokens - opts.Overlap,
	}
}

// Chunk tokenizes text and partitions it into overlapping Passages.
//
// Text with 0 content tokens fails with ErrCodeNoTextContent. Text whose
// content-token count is within MaxContentTokens produces a single passage.
func (c *Chunker) Chunk(text string) ([]Passage, error) {
	ids, words, ranges := c.tokenizer.EncodeContentWithRanges(text)
	n := len(ids)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeNoTextContent, "document has no content tokens", nil)
	}

	var passages []Passage
	chunkIndex := 0
	for start := 0; start < n; start += c.stride {
		end := start + c.opts.MaxContentTokens
		if end > n {
			end = n
		}

		tokenIDs := make([]int, 0, end-start+2)
		tokenIDs = append(tokenIDs, c.tokenizer.CLSID())
		tokenIDs = append(tokenIDs, ids[start:end]...)
		tokenIDs = append(tokenIDs, c.tokenizer.SEPID())

		passages = append(passages, Passage{
			ChunkIndex:      chunkIndex,
			TokenIDs:        tokenIDs,
			TokenCount:      len(tokenIDs),
			Text:            reconstructText(words, ranges, start, end),
			StartTokenIndex: start,
			EndTokenIndex:   end,
		})
		chunkIndex++

		if end == n {
			break
		}
	}

	return passages, nil
}

// reconstructText selects surface words whose token ranges intersect the
// half-open window [start, end) and concatenates them with single spaces.
func reconstructText(words []string, ranges []tokenize.WordRange, start, end int) string {
	var sb strings.Builder
	for i, r := range ranges {
		if r.Start < end && r.End > start {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(words[i])
		}
	}
	return sb.String()
}
