package model

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_UnitLength(t *testing.T) {
	vec := normalize([]float64{3, 4})

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.InDelta(t, 0.6, float64(vec[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(vec[1]), 1e-6)
}

func TestNormalize_ZeroVector(t *testing.T) {
	vec := normalize([]float64{0, 0, 0})
	for _, v := range vec {
		assert.False(t, math.IsNaN(float64(v)))
		assert.Zero(t, v)
	}
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{1, 0, 0}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 3)
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, 3)
	assert.InDelta(t, 1.0, float64(vec[0]), 1e-6)
}

func TestOllamaEmbedder_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{1, 0}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 3)
	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "test-model", 3)
	_, err := e.Embed(context.Background(), "hello")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.True(t, apiErr.Transient())
}

func TestOpenAIEmbedder_BatchPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 2)

		// Vectors returned out of order; index must win.
		fmt.Fprint(w, `{"data":[
			{"index":1,"embedding":[0,1]},
			{"index":0,"embedding":[1,0]}
		]}`)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "sk-test", "embed-model", 2)
	vectors, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.InDelta(t, 1.0, float64(vectors[0][0]), 1e-6)
	assert.InDelta(t, 1.0, float64(vectors[1][1]), 1e-6)
}

func TestOpenAIEmbedder_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[1,0]}]}`)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "", "embed-model", 2)
	_, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count mismatch")
}

func TestOpenAIGenerator_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" world\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	g := NewOpenAIGenerator(srv.URL, "", "chat-model")
	deltas, err := g.Generate(context.Background(), "say hello")
	require.NoError(t, err)

	var text string
	for d := range deltas {
		require.NoError(t, d.Err)
		text += d.Text
	}
	assert.Equal(t, "Hello world", text)
}

func TestOllamaGenerator_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{\"response\":\"The sky \",\"done\":false}\n")
		fmt.Fprint(w, "{\"response\":\"is blue.\",\"done\":false}\n")
		fmt.Fprint(w, "{\"response\":\"\",\"done\":true}\n")
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "chat-model", "")
	deltas, err := g.Generate(context.Background(), "what color is the sky?")
	require.NoError(t, err)

	var text string
	for d := range deltas {
		require.NoError(t, d.Err)
		text += d.Text
	}
	assert.Equal(t, "The sky is blue.", text)
}

type flakyEmbedder struct {
	calls    int
	failWith error
	failures int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.failWith
	}
	return []float32{1}, nil
}

func (f *flakyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vec, err := f.Embed(ctx, texts[0])
	if err != nil {
		return nil, err
	}
	return [][]float32{vec}, nil
}

func (f *flakyEmbedder) Dimension() int { return 1 }

func TestRetryingEmbedder_RecoversFromTransient(t *testing.T) {
	inner := &flakyEmbedder{failures: 2, failWith: &APIError{Status: 429, Body: "rate limited"}}
	e := NewRetryingEmbedder(inner, 3, time.Second)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 1)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingEmbedder_PermanentShortCircuits(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: &APIError{Status: 400, Body: "bad input"}}
	e := NewRetryingEmbedder(inner, 3, time.Second)

	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls, "non-transient errors must not be retried")
}

func TestRetryingEmbedder_GivesUpAfterCap(t *testing.T) {
	inner := &flakyEmbedder{failures: 10, failWith: &APIError{Status: 503, Body: "unavailable"}}
	e := NewRetryingEmbedder(inner, 2, time.Second)

	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls, "initial attempt plus two retries")
}
