// Package pinecone provides a minimal client for the Pinecone data-plane query
// endpoint. Only the single operation this application needs is implemented:
// a top-K similarity query with metadata included. Matches are returned in the
// provider's own ranking order; no additional tie-breaking is applied.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Match is a single similarity-search hit.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Text returns the "text" metadata field, or "" when absent or not a string.
func (m Match) Text() string {
	if m.Metadata == nil {
		return ""
	}
	s, _ := m.Metadata["text"].(string)
	return s
}

// Client queries a single Pinecone index over HTTP. Safe for concurrent use.
type Client struct {
	host       string // https://<index>-<project>.svc.<env>.pinecone.io
	apiKey     string
	httpClient *http.Client
}

// New returns a Client for the index served at host. The host is the index's
// data-plane URL, without a trailing slash. httpClient may be nil; a client
// with a conservative timeout is used by default.
func New(host, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

// Query returns up to topK matches for vector, ordered by the index's own
// similarity ranking, with metadata included.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	body, err := json.Marshal(queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep a short slice of the body for diagnostics; Pinecone errors are JSON.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("query index: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return out.Matches, nil
}
