package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hushh/deepsearch/internal/adapter"
	"github.com/hushh/deepsearch/internal/config"
	"github.com/hushh/deepsearch/internal/metrics"
	"github.com/hushh/deepsearch/internal/orchestrator"
	"github.com/hushh/deepsearch/internal/phoneenrich"
	"github.com/hushh/deepsearch/internal/pivot"
	"github.com/hushh/deepsearch/internal/resilience"
	"github.com/hushh/deepsearch/internal/store"
	"github.com/hushh/deepsearch/internal/telemetry"
	anthropicpkg "github.com/hushh/deepsearch/pkg/anthropic"
)

// initStore opens the configured store. Driver "none" returns a nil store.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	switch c.Store.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = "deepsearch.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// openStore opens and migrates the store for commands that need one.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("a store is required (set store.driver)")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// searchEnv holds everything the search and serve commands need.
type searchEnv struct {
	Store        store.Store // nil when persistence is disabled
	Orchestrator *orchestrator.Orchestrator
	Metrics      *metrics.Metrics
	Registry     *prometheus.Registry
	// Local is set when pivot.mode is local.
	Local *pivot.LocalExtractor

	flush func()
}

// Close releases resources held by the environment.
func (e *searchEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
	if e.flush != nil {
		e.flush()
	}
}

// initSearch validates config for mode and wires the orchestrator. Callers
// should defer env.Close().
func initSearch(ctx context.Context, c *config.Config, mode string) (*searchEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	flush, err := telemetry.Init(telemetry.Config{
		DSN:              c.Sentry.DSN,
		Environment:      c.Sentry.Environment,
		TracesSampleRate: c.Sentry.TracesSampleRate,
	})
	if err != nil {
		return nil, err
	}
	env := &searchEnv{flush: flush}

	env.Registry = prometheus.NewRegistry()
	env.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	env.Metrics = metrics.New(env.Registry)

	st, err := initStore(ctx, c)
	if err != nil {
		env.Close()
		return nil, err
	}
	if st != nil {
		env.Store = st
		if err := st.Migrate(ctx); err != nil {
			env.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	env.Orchestrator, env.Local = buildOrchestrator(c, env.Store, env.Metrics)
	return env, nil
}

// buildOrchestrator wires the adapter client, phone enricher, pivot
// extractor, and optional store into an Orchestrator.
func buildOrchestrator(c *config.Config, st store.Store, m *metrics.Metrics) (*orchestrator.Orchestrator, *pivot.LocalExtractor) {
	reg := adapter.DefaultRegistry()
	names := make([]string, 0, len(reg.All()))
	for _, d := range reg.All() {
		names = append(names, d.Name)
	}

	retry := resilience.PolicyFromConfig(c.Adapters.RetryAttempts, c.Adapters.RetryBaseDelayMs)
	client := adapter.NewClient(reg, adapter.Config{
		BaseURL:    c.Adapters.BaseURL,
		AnonKey:    c.Adapters.AnonKey,
		Timeout:    c.AdapterTimeout(),
		RatePerSec: c.Adapters.RatePerSec,
		Burst:      c.Adapters.Burst,
		Endpoints:  c.EndpointOverrides(names),
		Retry:      retry,
		Breaker:    resilience.BreakerFromConfig(c.Circuit.FailureThreshold, c.Circuit.ResetTimeoutSecs),
	}, adapter.WithMetrics(m))

	opts := []orchestrator.Option{orchestrator.WithMetrics(m)}
	if st != nil {
		opts = append(opts, orchestrator.WithStore(st))
	}
	if c.Phone.URL != "" {
		opts = append(opts, orchestrator.WithEnricher(phoneenrich.New(
			c.Phone.URL, c.Phone.Key, secs(c.Phone.TimeoutSecs), phoneenrich.WithRetry(retry),
		)))
	}

	var local *pivot.LocalExtractor
	switch c.Pivot.Mode {
	case "local":
		local = pivot.NewLocalExtractor(anthropicpkg.NewClient(c.Anthropic.Key), c.Anthropic.Model, c.Anthropic.MaxTokens)
		opts = append(opts, orchestrator.WithExtractor(local))
	default:
		opts = append(opts, orchestrator.WithExtractor(pivot.NewHTTPClient(c.PivotURL(), c.Adapters.AnonKey)))
	}

	zap.L().Debug("orchestrator wired",
		zap.String("pivot_mode", c.Pivot.Mode),
		zap.Bool("phone_enrichment", c.Phone.URL != ""),
		zap.Bool("persistence", st != nil),
	)

	return orchestrator.New(reg, client, orchestrator.Config{
		Phase2Threshold: c.Phases.Phase2Threshold,
		Phase3Threshold: c.Phases.Phase3Threshold,
		PivotTimeout:    c.PivotTimeout(),
		PersistDetached: c.Persist.Detached,
		PersistTimeout:  c.PersistTimeout(),
	}, opts...), local
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }
