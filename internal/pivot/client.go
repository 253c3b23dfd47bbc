// Package pivot extracts data from a user-confirmed profile and discovers
// related profiles on other platforms.
package pivot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/hushh/deepsearch/internal/model"
)

// HTTPClient calls a remote pivot-extract endpoint.
type HTTPClient struct {
	url     string
	anonKey string
	http    *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.http = hc }
}

// NewHTTPClient returns a client for the extractor at url.
func NewHTTPClient(url, anonKey string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{url: url, anonKey: anonKey, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract posts req and decodes the extraction. Non-2xx answers are errors.
func (c *HTTPClient) Extract(ctx context.Context, req model.PivotRequest) (*model.PivotExtraction, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "pivot: marshal request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "pivot: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.anonKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "pivot: call extractor")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pivot: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.New(fmt.Sprintf("pivot: extractor returned %d: %s", resp.StatusCode, truncate(raw, 256)))
	}

	var px model.PivotExtraction
	if err := json.Unmarshal(raw, &px); err != nil {
		return nil, eris.Wrap(err, "pivot: decode response")
	}
	return &px, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
