package speckles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Document run headers set by the server.
const (
	headerNodes    = "X-Despeckle-Nodes"
	headerReplaced = "X-Despeckle-Replaced"
	headerRemoved  = "X-Despeckle-Removed"
	headerFailed   = "X-Despeckle-Failed"
)

// Client talks to a despeckle server.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// FilterPath posts one path to /v1/paths.
func (c *Client) FilterPath(ctx context.Context, body PathRequest) (PathResponse, error) {
	var out PathResponse
	data, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/paths", bytes.NewReader(data))
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// DocumentSummary is what the server reports about a document run.
type DocumentSummary struct {
	Nodes    int
	Replaced int
	Removed  int
	Failed   int
	Body     []byte
}

// FilterDocument posts an SVG document to /v1/documents.
func (c *Client) FilterDocument(ctx context.Context, svg string, area float64, segments int) (DocumentSummary, error) {
	var out DocumentSummary
	url := fmt.Sprintf("%s/v1/documents?area=%s&segments=%d",
		c.baseURL, strconv.FormatFloat(area, 'g', -1, 64), segments)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(svg))
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/svg+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	out.Body, err = io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(out.Body))
	}
	for name, dst := range map[string]*int{
		headerNodes:    &out.Nodes,
		headerReplaced: &out.Replaced,
		headerRemoved:  &out.Removed,
		headerFailed:   &out.Failed,
	} {
		if *dst, err = strconv.Atoi(resp.Header.Get(name)); err != nil {
			return out, fmt.Errorf("bad %s header: %w", name, err)
		}
	}
	return out, nil
}
