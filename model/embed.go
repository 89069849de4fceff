package model

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Embedder turns text into fixed-dimension vectors. Implementations call a
// remote service and may take seconds; callers pass a context and must not
// assume low latency.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Delta is one increment of a streamed generation. A non-nil Err terminates
// the stream; no further deltas follow it.
type Delta struct {
	Text string
	Err  error
}

// Generator streams an answer for a prompt. The returned channel is closed
// when generation completes or after a terminal error delta.
type Generator interface {
	Generate(ctx context.Context, prompt string) (<-chan Delta, error)
}

// APIError is a non-2xx reply from an embedding or generation provider.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}

// Transient reports whether the failure is worth retrying with backoff.
// Rate limits and server-side failures are; malformed requests are not.
func (e *APIError) Transient() bool {
	return e.Status == 429 || e.Status >= 500
}

// IsTransient classifies an arbitrary provider error. Anything that is not
// an explicit non-transient APIError (network failures, truncated bodies)
// gets the bounded retry.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	return true
}

// normalize L2-normalizes a provider vector so that cosine ranking stays
// consistent between ingestion time and query time.
func normalize(vec []float64) []float32 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
