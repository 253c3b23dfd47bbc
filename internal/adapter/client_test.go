package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/resilience"
)

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := Config{
		BaseURL: srv.URL,
		AnonKey: "anon",
		Timeout: 2 * time.Second,
		Retry:   resilience.Policy{Attempts: 2, BaseDelay: time.Millisecond},
		Breaker: resilience.BreakerConfig{Threshold: 100},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewClient(DefaultRegistry(), cfg, WithHTTPClient(srv.Client()))
}

func TestClient_CallSuccess(t *testing.T) {
	var got model.AdapterRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/deepsearch-codegraph", r.URL.Path)
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","confidence":82,"executionTimeMs":340,"data":{"company":"Acme"}}`))
	})

	res := c.Call(context.Background(), CodeGraph, model.AdapterRequest{SearchID: "ds_x", Name: "Jane"})
	assert.Equal(t, model.APIStatusSuccess, res.Status)
	assert.Equal(t, "Hushh CodeGraph", res.BrandedName)
	assert.Equal(t, 82.0, res.Confidence)
	assert.Equal(t, int64(340), res.ExecutionTimeMs)
	assert.JSONEq(t, `{"company":"Acme"}`, string(res.Data))
	assert.True(t, res.Answered)
	assert.Equal(t, "Jane", got.Name)
	assert.Equal(t, "ds_x", got.SearchID)
}

func TestClient_CallFailedEnvelopeIsAnswered(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","confidence":0,"error":"no match"}`))
	})

	res := c.Call(context.Background(), ProConnect, model.AdapterRequest{Name: "Jane"})
	assert.Equal(t, model.APIStatusFailed, res.Status)
	assert.Equal(t, "no match", res.Error)
	assert.True(t, res.Answered)
}

func TestClient_CallDefaultsAndClamp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"confidence":140,"data":null}`))
	})

	res := c.Call(context.Background(), GovVerify, model.AdapterRequest{Name: "Jane"})
	assert.Equal(t, model.APIStatusSuccess, res.Status)
	assert.Equal(t, 100.0, res.Confidence)
	assert.Nil(t, res.Data)
	assert.GreaterOrEqual(t, res.ExecutionTimeMs, int64(0))
}

func TestClient_CallNon2xx(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	res := c.Call(context.Background(), SocialMap, model.AdapterRequest{Name: "Jane"})
	assert.Equal(t, model.APIStatusFailed, res.Status)
	assert.Equal(t, "API returned 404", res.Error)
	assert.Zero(t, res.Confidence)
	assert.False(t, res.Answered)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CallRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"partial","confidence":40}`))
	})

	res := c.Call(context.Background(), WebCrawl, model.AdapterRequest{Name: "Jane"})
	assert.Equal(t, model.APIStatusPartial, res.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_CallTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, func(cfg *Config) {
		cfg.Timeout = 50 * time.Millisecond
		cfg.Retry = resilience.Policy{Attempts: 1}
	})

	res := c.Call(context.Background(), CommitTrail, model.AdapterRequest{Name: "Jane"})
	assert.Equal(t, model.APIStatusFailed, res.Status)
	assert.Contains(t, res.Error, "deadline exceeded")
}

func TestClient_CallUnknownAdapter(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("unexpected request")
	})
	res := c.Call(context.Background(), "nope", model.AdapterRequest{})
	assert.Equal(t, model.APIStatusFailed, res.Status)
	assert.Equal(t, "Unknown API", res.Error)
}

func TestClient_CallBadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	res := c.Call(context.Background(), PhoneIntel, model.AdapterRequest{})
	assert.Equal(t, model.APIStatusFailed, res.Status)
	assert.Contains(t, res.Error, "decode phoneIntel response")
}

func TestClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, func(cfg *Config) {
		cfg.Breaker = resilience.BreakerConfig{Threshold: 2, Cooldown: time.Minute}
	})

	for range 3 {
		c.Call(context.Background(), ProConnect, model.AdapterRequest{})
	}
	res := c.Call(context.Background(), ProConnect, model.AdapterRequest{})
	assert.Equal(t, model.APIStatusFailed, res.Status)
	assert.Contains(t, res.Error, "circuit open")
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_URLOverride(t *testing.T) {
	c := NewClient(DefaultRegistry(), Config{
		BaseURL:   "https://proj.example.co/",
		Endpoints: map[string]string{GovVerify: "http://localhost:9000/gov"},
	})
	d, _ := DefaultRegistry().Get(GovVerify)
	assert.Equal(t, "http://localhost:9000/gov", c.URL(d))
	d, _ = DefaultRegistry().Get(CodeGraph)
	assert.Equal(t, "https://proj.example.co/functions/v1/deepsearch-codegraph", c.URL(d))
}
