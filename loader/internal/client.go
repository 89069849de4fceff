package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"rag/types"
)

// IngestClient submits extracted document text to the service's ingest
// endpoint.
type IngestClient struct {
	ingestURL string
	client    *http.Client
}

func NewIngestClient(ingestURL string) *IngestClient {
	return &IngestClient{
		ingestURL: ingestURL,
		client:    http.DefaultClient,
	}
}

// Submit ingests text under the given source label and returns the number of
// chunks the service processed.
func (c *IngestClient) Submit(ctx context.Context, text, source string) (int, error) {
	body, err := json.Marshal(types.IngestParams{Text: text, Source: source})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal ingest request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ingestURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach ingest endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("ingest rejected with status %d: %s", resp.StatusCode, respBody)
	}

	var out types.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode ingest response: %w", err)
	}
	return out.ChunksProcessed, nil
}
