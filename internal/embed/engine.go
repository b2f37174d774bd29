// Package embed implements the Embedding Engine: a single-owner ONNX
// Runtime session that turns token id sequences into pooled dense vectors
// (§4.5).
package embed

import (
	"context"
	"sync"
	"time"

	onnxruntime "github.com/yalue/onnxruntime_go"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/webindex/webindex/internal/errors"
)

// Options configures the Engine.
type Options struct {
	ModelPath        string
	Dimension        int
	InferenceTimeout time.Duration
	CacheSize        int
}

// Engine wraps a single onnxruntime.Session, serializing all
// inference calls through a mutex (§5: "the model session is treated as
// single-inference-at-a-time"). A golang-lru cache in front of the session
// serves repeat embed_tokens calls without re-running inference (§4.5).
type Engine struct {
	opts Options

	mu      sync.Mutex
	session *onnxruntime.Session

	cache   *lru.Cache[string, []float32]
	breaker *breaker
}

// New builds an Engine and initializes the ONNX Runtime session. Returns
// ModelUnavailable if the model resource cannot be loaded.
func New(opts Options) (*Engine, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 2048
	}
	if opts.InferenceTimeout <= 0 {
		opts.InferenceTimeout = 30 * time.Second
	}

	if err := onnxruntime.InitializeEnvironment(); err != nil {
		return nil, errors.New(errors.ErrCodeModelUnavailable, "failed to initialize ONNX Runtime environment", err)
	}

	session, err := onnxruntime.NewSession(opts.ModelPath, onnxruntime.NewSessionOptions())
	if err != nil {
		return nil, errors.New(errors.ErrCodeModelUnavailable, "failed to load embedding model at "+opts.ModelPath, err)
	}

	cache, err := lru.New[string, []float32](opts.CacheSize)
	if err != nil {
		return nil, errors.InternalError("failed to construct embedding cache", err)
	}

	return &Engine{
		opts:    opts,
		session: session,
		cache:   cache,
		breaker: newBreaker(5, 30*time.Second),
	}, nil
}

// Dimension returns the engine's fixed output vector length.
func (e *Engine) Dimension() int {
	return e.opts.Dimension
}

// Close releases the ONNX session.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	return nil
}

// EmbedTokens produces a pooled embedding for a token id sequence,
// including [CLS]/[SEP] (§4.5's pooling contract): mean over all L
// positions, [CLS]/[SEP] are NOT excluded. Results are cached by a stable
// hash of token_ids. A single inference timeout gets one bounded retry
// before surfacing; repeated failures trip the breaker and short-circuit
// further calls with Overloaded rather than re-running a failing session.
func (e *Engine) EmbedTokens(ctx context.Context, tokenIDs []int) ([]float32, error) {
	key := hashTokenIDs(tokenIDs)
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	if !e.breaker.allow() {
		return nil, errors.New(errors.ErrCodeOverloaded, "embedding engine circuit open after repeated inference failures", nil)
	}

	vector, err := e.runWithTimeout(ctx, tokenIDs)
	e.breaker.recordResult(err)
	if err != nil {
		return nil, err
	}

	e.cache.Add(key, vector)
	return vector, nil
}

// runWithTimeout runs one inference attempt under InferenceTimeout and, if
// that attempt fails with an inference timeout, a second attempt with a
// fresh timeout (see runWithRetry). The query-string path (embed_text) is
// QueryEmbedder.EmbedText in query.go, which tokenizes and calls EmbedTokens.
func (e *Engine) runWithTimeout(ctx context.Context, tokenIDs []int) ([]float32, error) {
	return runWithRetry(ctx, 200*time.Millisecond, func() ([]float32, error) {
		timeoutCtx, cancel := context.WithTimeout(ctx, e.opts.InferenceTimeout)
		defer cancel()

		vector, err := e.infer(tokenIDs)
		if err != nil && timeoutCtx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrCodeInferenceTimeout, "embedding inference exceeded timeout", err)
		}
		return vector, err
	})
}

// infer runs one forward pass. The session is single-owner (§5): callers
// serialize through e.mu for the duration of tensor construction, Run, and
// teardown.
func (e *Engine) infer(tokenIDs []int) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil, errors.New(errors.ErrCodeModelUnavailable, "embedding engine session is closed", nil)
	}

	l := len(tokenIDs)
	inputIDs := make([]int64, l)
	attentionMask := make([]int64, l)
	tokenTypeIDs := make([]int64, l)
	for i, id := range tokenIDs {
		inputIDs[i] = int64(id)
		attentionMask[i] = 1
	}

	inputIDsTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(l)), inputIDs)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInferenceFailed, "failed to build input_ids tensor", err)
	}
	defer inputIDsTensor.Destroy()

	attentionTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(l)), attentionMask)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInferenceFailed, "failed to build attention_mask tensor", err)
	}
	defer attentionTensor.Destroy()

	tokenTypeTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(l)), tokenTypeIDs)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInferenceFailed, "failed to build token_type_ids tensor", err)
	}
	defer tokenTypeTensor.Destroy()

	outputs, err := e.session.Run([]onnxruntime.Value{inputIDsTensor, attentionTensor, tokenTypeTensor})
	if err != nil {
		return nil, errors.New(errors.ErrCodeInferenceFailed, "ONNX Runtime inference failed", err)
	}
	defer func() {
		for _, o := range outputs {
			o.Destroy()
		}
	}()
	if len(outputs) == 0 {
		return nil, errors.New(errors.ErrCodeInferenceFailed, "ONNX model returned no outputs", nil)
	}

	data, ok := outputs[0].GetData().([]float32)
	if !ok {
		return nil, errors.New(errors.ErrCodeInferenceFailed, "unexpected ONNX output tensor type", nil)
	}

	return meanPool(data, l, e.opts.Dimension), nil
}

// meanPool sums hidden states across all L positions (including [CLS]/[SEP])
// and divides by L, per §4.5's pooling invariant. It does not mask any
// position out: this implementation never pads, so every position is real.
func meanPool(hidden []float32, seqLen, dim int) []float32 {
	pooled := make([]float32, dim)
	if seqLen == 0 {
		return pooled
	}
	for i := 0; i < seqLen; i++ {
		base := i * dim
		for j := 0; j < dim; j++ {
			pooled[j] += hidden[base+j]
		}
	}
	for j := 0; j < dim; j++ {
		pooled[j] /= float32(seqLen)
	}
	return pooled
}
