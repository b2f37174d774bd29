package embed

import (
	"context"
	"sync"
	"time"

	"github.com/webindex/webindex/internal/errors"
)

// breaker guards the ONNX session against a run of inference failures. It
// is scoped to a single Engine rather than a generically named resource: an
// Engine owns exactly one onnxruntime.Session, so there's only ever one
// breaker state to track, and no need for the teacher's named-resource
// registry shape.
type breaker struct {
	maxFailures int
	resetAfter  time.Duration

	mu       sync.Mutex
	open     bool
	failures int
	openedAt time.Time
}

func newBreaker(maxFailures int, resetAfter time.Duration) *breaker {
	return &breaker{maxFailures: maxFailures, resetAfter: resetAfter}
}

// allow reports whether an inference call may proceed: always while closed,
// and, once open, for any call made after resetAfter has elapsed since
// tripping; the next recorded result then closes it or restarts the wait.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	return time.Since(b.openedAt) > b.resetAfter
}

// recordResult updates the failure count from the outcome of one inference
// call, tripping the breaker once maxFailures consecutive calls have failed.
func (b *breaker) recordResult(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		b.open = false
		return
	}
	b.failures++
	if b.failures >= b.maxFailures {
		b.open = true
		b.openedAt = time.Now()
	}
}

// runWithRetry runs fn once, and once more after backoff if the failure was
// an inference timeout — the one ONNX failure mode expected to clear on a
// second attempt (a transient scheduling stall, not a broken session). A
// closed session or malformed tensor input fails identically on retry, so
// those error codes are not retried.
func runWithRetry(ctx context.Context, backoff time.Duration, fn func() ([]float32, error)) ([]float32, error) {
	vector, err := fn()
	if err == nil || errors.GetCode(err) != errors.ErrCodeInferenceTimeout {
		return vector, err
	}

	select {
	case <-ctx.Done():
		return nil, err
	case <-time.After(backoff):
	}

	return fn()
}
