package embed

import (
	"context"

	"github.com/webindex/webindex/internal/tokenize"
)

// QueryEmbedder adapts an Engine plus a Tokenizer into the search.Embedder
// interface, implementing §4.5's embed_text(text) =
// embed_tokens(tokenizer.encode(text)[:512]) contract.
type QueryEmbedder struct {
	engine    *Engine
	tokenizer *tokenize.Tokenizer
}

// NewQueryEmbedder builds a QueryEmbedder.
func NewQueryEmbedder(engine *Engine, tokenizer *tokenize.Tokenizer) *QueryEmbedder {
	return &QueryEmbedder{engine: engine, tokenizer: tokenizer}
}

// EmbedText implements search.Embedder.
func (q *QueryEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ids := q.tokenizer.Encode(text)
	if len(ids) > 512 {
		ids = ids[:512]
	}
	return q.engine.EmbedTokens(ctx, ids)
}
