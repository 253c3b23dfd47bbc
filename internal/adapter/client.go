package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hushh/deepsearch/internal/metrics"
	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/resilience"
)

// Caller invokes one adapter. It never fails: transport and protocol errors
// are recorded on the returned result with status failed.
type Caller interface {
	Call(ctx context.Context, name string, req model.AdapterRequest) model.APIResult
}

// Config configures the HTTP adapter client.
type Config struct {
	BaseURL string
	AnonKey string
	// Timeout bounds one adapter call, retries included.
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	// Endpoints overrides the full URL for individual adapters.
	Endpoints map[string]string
	Retry     resilience.Policy
	Breaker   resilience.BreakerConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records call outcomes and breaker transitions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client calls adapters over HTTP with a per-adapter rate limiter, circuit
// breaker, bounded retry, and deadline.
type Client struct {
	reg      *Registry
	cfg      Config
	http     *http.Client
	limiters map[string]*rate.Limiter
	breakers *resilience.Breakers
	metrics  *metrics.Metrics
}

// NewClient builds a Client for every adapter in reg.
func NewClient(reg *Registry, cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	c := &Client{
		reg:      reg,
		cfg:      cfg,
		http:     &http.Client{Transport: &http.Transport{MaxIdleConnsPerHost: 16, IdleConnTimeout: 90 * time.Second}},
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(c)
	}

	bc := cfg.Breaker
	bc.OnChange = func(name string, from, to resilience.BreakerState) {
		zap.L().Warn("adapter: circuit state changed",
			zap.String("adapter", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
		c.metrics.SetBreakerState(name, int(to))
	}
	c.breakers = resilience.NewBreakers(bc)

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := max(cfg.Burst, 1)
	for _, d := range reg.All() {
		c.limiters[d.Name] = rate.NewLimiter(limit, burst)
	}
	return c
}

// URL returns the endpoint URL for an adapter.
func (c *Client) URL(d Descriptor) string {
	if u, ok := c.cfg.Endpoints[d.Name]; ok && u != "" {
		return u
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/functions/v1/" + d.Endpoint
}

// Call implements Caller.
func (c *Client) Call(ctx context.Context, name string, req model.AdapterRequest) model.APIResult {
	start := time.Now()
	res := model.APIResult{APIName: name, BrandedName: c.reg.Branded(name)}

	d, ok := c.reg.Get(name)
	if !ok {
		res.Status = model.APIStatusFailed
		res.Error = "Unknown API"
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	policy := c.cfg.Retry
	policy.OnRetry = resilience.LogRetry(name)
	env, err := resilience.Call(ctx, c.breakers.For(name), func(ctx context.Context) (*model.AdapterResponse, error) {
		return resilience.Retry(ctx, policy, func(ctx context.Context) (*model.AdapterResponse, error) {
			return c.post(ctx, d, req)
		})
	})
	elapsed := time.Since(start)

	if err != nil {
		zap.L().Warn("adapter: call failed",
			zap.String("search_id", req.SearchID),
			zap.String("adapter", name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		res.Status = model.APIStatusFailed
		res.Error = errorMessage(err)
		res.ExecutionTimeMs = elapsed.Milliseconds()
		c.metrics.ObserveAdapter(name, string(res.Status), elapsed)
		return res
	}

	res.Answered = true
	res.Status = model.ParseAPIStatus(env.Status)
	res.Confidence = model.ClampConfidence(env.Confidence)
	res.ExecutionTimeMs = env.ExecutionTimeMs
	if res.ExecutionTimeMs <= 0 {
		res.ExecutionTimeMs = elapsed.Milliseconds()
	}
	if string(env.Data) != "null" {
		res.Data = env.Data
	}
	res.Error = env.Error
	c.metrics.ObserveAdapter(name, string(res.Status), elapsed)
	return res
}

// statusError is a non-2xx adapter answer.
type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("API returned %d", e.code) }

func (c *Client) post(ctx context.Context, d Descriptor, req model.AdapterRequest) (*model.AdapterResponse, error) {
	if err := c.limiters[d.Name].Wait(ctx); err != nil {
		return nil, eris.Wrapf(err, "adapter: rate limit %s", d.Name)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrapf(err, "adapter: marshal %s request", d.Name)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(d), bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "adapter: build %s request", d.Name)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.AnonKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.AnonKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrapf(err, "adapter: call %s", d.Name)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Transient(eris.Wrapf(err, "adapter: read %s response", d.Name), 0)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zap.L().Debug("adapter: non-2xx response",
			zap.String("adapter", d.Name),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(raw), 512)),
		)
		serr := &statusError{code: resp.StatusCode}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.Transient(serr, resp.StatusCode)
		}
		return nil, serr
	}

	var env model.AdapterResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, eris.Wrapf(err, "adapter: decode %s response", d.Name)
	}
	return &env, nil
}

// errorMessage keeps the adapter-facing wording for HTTP status failures and
// falls back to the wrapped chain otherwise.
func errorMessage(err error) string {
	var se *statusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
