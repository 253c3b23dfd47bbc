// Package phoneenrich looks up caller-ID data for a phone number before the
// first search phase.
package phoneenrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/resilience"
)

// Enricher calls a caller-ID lookup service over HTTP.
type Enricher struct {
	url     string
	key     string
	timeout time.Duration
	http    *http.Client
	retry   resilience.Policy
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(e *Enricher) { e.http = hc }
}

// WithRetry sets the retry policy for transient lookup failures.
func WithRetry(p resilience.Policy) Option {
	return func(e *Enricher) { e.retry = p }
}

// New returns an Enricher for the lookup service at url.
func New(url, key string, timeout time.Duration, opts ...Option) *Enricher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	e := &Enricher{
		url:     url,
		key:     key,
		timeout: timeout,
		http:    http.DefaultClient,
		retry:   resilience.Policy{Attempts: 1},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type lookupRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
}

// Enrich looks up phone. A lookup that finds nothing is not an error.
func (e *Enricher) Enrich(ctx context.Context, phone, name string) (*model.PhoneEnrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(lookupRequest{Phone: phone, Name: name})
	if err != nil {
		return nil, eris.Wrap(err, "phoneenrich: marshal request")
	}
	return resilience.Retry(ctx, e.retry, func(ctx context.Context) (*model.PhoneEnrichment, error) {
		return e.do(ctx, body)
	})
}

func (e *Enricher) do(ctx context.Context, body []byte) (*model.PhoneEnrichment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "phoneenrich: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if e.key != "" {
		req.Header.Set("Authorization", "Bearer "+e.key)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "phoneenrich: lookup")
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "phoneenrich: read response")
	}
	if resp.StatusCode == http.StatusNotFound {
		return &model.PhoneEnrichment{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := eris.New(fmt.Sprintf("phoneenrich: lookup returned %d", resp.StatusCode))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.Transient(err, resp.StatusCode)
		}
		return nil, err
	}

	var out model.PhoneEnrichment
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "phoneenrich: decode response")
	}
	return &out, nil
}
