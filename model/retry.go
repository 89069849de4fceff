package model

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryingEmbedder wraps an Embedder with bounded exponential backoff and a
// hard per-call timeout. Non-transient provider errors short-circuit.
type RetryingEmbedder struct {
	inner   Embedder
	retries uint64
	timeout time.Duration
}

func NewRetryingEmbedder(inner Embedder, retries uint64, timeout time.Duration) *RetryingEmbedder {
	return &RetryingEmbedder{
		inner:   inner,
		retries: retries,
		timeout: timeout,
	}
}

func (r *RetryingEmbedder) Dimension() int { return r.inner.Dimension() }

func (r *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return retryCall(ctx, r.retries, r.timeout, func(ctx context.Context) ([]float32, error) {
		return r.inner.Embed(ctx, text)
	})
}

func (r *RetryingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return retryCall(ctx, r.retries, r.timeout, func(ctx context.Context) ([][]float32, error) {
		return r.inner.EmbedBatch(ctx, texts)
	})
}

// RetryingGenerator retries starting a generation stream. Once the stream is
// open, mid-stream failures are terminal and never re-established.
type RetryingGenerator struct {
	inner   Generator
	retries uint64
}

func NewRetryingGenerator(inner Generator, retries uint64) *RetryingGenerator {
	return &RetryingGenerator{inner: inner, retries: retries}
}

func (r *RetryingGenerator) Generate(ctx context.Context, prompt string) (<-chan Delta, error) {
	return retryCall(ctx, r.retries, 0, func(ctx context.Context) (<-chan Delta, error) {
		return r.inner.Generate(ctx, prompt)
	})
}

func retryCall[T any](ctx context.Context, retries uint64, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	var result T

	op := func() error {
		callCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		v, err := call(callCtx)
		if err != nil {
			if !IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = v
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return result, err
	}
	return result, nil
}
