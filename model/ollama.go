package model

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaEmbedder produces embeddings via a local Ollama instance.
type OllamaEmbedder struct {
	apiURL string
	model  string
	dim    int
	client *http.Client
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func NewOllamaEmbedder(apiURL, model string, dim int) *OllamaEmbedder {
	return &OllamaEmbedder{
		apiURL: apiURL,
		model:  model,
		dim:    dim,
		client: http.DefaultClient,
	}
}

func (e *OllamaEmbedder) Dimension() int { return e.dim }

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var ollamaResp ollamaEmbeddingResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if e.dim > 0 && len(ollamaResp.Embedding) != e.dim {
		return nil, fmt.Errorf("embedding dimension mismatch: want %d, got %d", e.dim, len(ollamaResp.Embedding))
	}

	return normalize(ollamaResp.Embedding), nil
}

// EmbedBatch embeds texts one by one; the Ollama embeddings endpoint takes a
// single prompt per call. Order is preserved, one vector per input.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d of %d: %w", i+1, len(texts), err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// OllamaGenerator streams completions from the Ollama generate endpoint.
type OllamaGenerator struct {
	apiURL string
	model  string
	system string
	client *http.Client
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewOllamaGenerator(apiURL, model, system string) *OllamaGenerator {
	return &OllamaGenerator{
		apiURL: apiURL,
		model:  model,
		system: system,
		client: http.DefaultClient,
	}
}

// Generate starts a streamed completion. Ollama replies with one JSON object
// per line; each line's response field is forwarded as a delta until done.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (<-chan Delta, error) {
	reqBody, err := json.Marshal(ollamaGenerateRequest{
		Model:  g.model,
		System: g.system,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	out := make(chan Delta)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaGenerateChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				sendDelta(ctx, out, Delta{Err: fmt.Errorf("malformed stream chunk: %w", err)})
				return
			}
			if chunk.Response != "" {
				if !sendDelta(ctx, out, Delta{Text: chunk.Response}) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			sendDelta(ctx, out, Delta{Err: fmt.Errorf("stream interrupted: %w", err)})
		}
	}()

	return out, nil
}

// sendDelta delivers a delta unless the caller has gone away.
func sendDelta(ctx context.Context, out chan<- Delta, d Delta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
