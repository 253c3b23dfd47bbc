// Package telemetry wires optional Sentry error reporting.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const serviceName = "deepsearch"

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Release          string
}

// Init initializes Sentry and returns a function that flushes pending events.
// An empty DSN leaves Sentry disabled and returns a no-op.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		ServerName:       serviceName,
	})
	if err != nil {
		zap.L().Warn("sentry: failed to initialize, continuing without error reporting", zap.Error(err))
		return func() {}, nil
	}

	zap.L().Info("sentry: initialized",
		zap.String("environment", cfg.Environment),
		zap.Float64("traces_sample_rate", cfg.TracesSampleRate),
	)
	return func() { sentry.Flush(5 * time.Second) }, nil
}

func hub(ctx context.Context) *sentry.Hub {
	if h := sentry.GetHubFromContext(ctx); h != nil {
		return h
	}
	return sentry.CurrentHub()
}

// CaptureError reports err with the hub bound to ctx, if any.
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub(ctx).CaptureException(err)
}

// CapturePanic reports a recovered panic value and returns it as an error.
func CapturePanic(ctx context.Context, rec any) error {
	hub(ctx).RecoverWithContext(ctx, rec)
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", rec)
}

// WithSearchScope tags events raised while handling one search.
func WithSearchScope(ctx context.Context, searchID string) context.Context {
	h := hub(ctx).Clone()
	h.Scope().SetTag("search_id", searchID)
	return sentry.SetHubOnContext(ctx, h)
}
