// Package teststub provides a deterministic embedding engine for
// Orchestrator-level integration tests (SPEC_FULL.md §8: the S1/S4/S5
// scenarios require an injected deterministic embedding engine rather than
// the real ONNX model, so fixtures don't depend on model-specific floats).
package teststub

import (
	"context"
	"encoding/binary"
	"hash/fnv"
)

// Engine is a fixed-dimension embedding engine that derives a vector
// deterministically from its input, with an optional per-key override so a
// test can pin specific passages/queries to a chosen vector (e.g. to
// exercise a known fusion/tiebreak outcome).
//
// It satisfies both internal/orchestrator's token-based Embedder interface
// (EmbedTokens) and internal/search's text-based Embedder interface
// (EmbedText).
type Engine struct {
	dim   int
	fixed map[string][]float32
}

// New builds a deterministic stub Engine producing vectors of length dim.
func New(dim int) *Engine {
	return &Engine{dim: dim, fixed: make(map[string][]float32)}
}

// Dimension returns the engine's fixed output vector length.
func (e *Engine) Dimension() int {
	return e.dim
}

// Pin forces text (as passed to EmbedText) to embed to exactly vector,
// bypassing the deterministic hash derivation. Used by tests that need a
// specific fusion/ranking outcome.
func (e *Engine) Pin(text string, vector []float32) {
	e.fixed[text] = vector
}

// EmbedTokens derives a deterministic vector from a token id sequence.
func (e *Engine) EmbedTokens(_ context.Context, tokenIDs []int) ([]float32, error) {
	buf := make([]byte, 8)
	h := fnv.New64a()
	for _, id := range tokenIDs {
		binary.LittleEndian.PutUint64(buf, uint64(id))
		h.Write(buf)
	}
	return deterministicVector(h.Sum64(), e.dim), nil
}

// EmbedText returns a Pin-ed vector if one was set for text, otherwise
// derives a deterministic vector from text's bytes. Implements
// internal/search's Embedder interface for query-time dense search in
// tests.
func (e *Engine) EmbedText(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.fixed[text]; ok {
		return v, nil
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	return deterministicVector(h.Sum64(), e.dim), nil
}

// deterministicVector expands a 64-bit seed into a dim-length unit-ish
// vector by re-hashing the seed once per dimension (splitmix64-style).
func deterministicVector(seed uint64, dim int) []float32 {
	v := make([]float32, dim)
	x := seed
	for i := 0; i < dim; i++ {
		x += 0x9E3779B97F4A7C15
		z := x
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		z = z ^ (z >> 31)
		// Map the top bits to a small signed float range.
		v[i] = float32(int32(z>>40)) / float32(1<<23)
	}
	return v
}
