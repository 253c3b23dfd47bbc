// Package metrics exposes Prometheus collectors for searches and adapter
// calls. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deepsearch"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	gatherer prometheus.Gatherer

	adapterCalls   *prometheus.CounterVec
	adapterLatency *prometheus.HistogramVec
	breakerState   *prometheus.GaugeVec
	searches       *prometheus.CounterVec
	searchLatency  *prometheus.HistogramVec
	confidence     prometheus.Histogram
	persistErrors  prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		adapterCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_calls_total",
			Help:      "Adapter calls by adapter and resulting status.",
		}, []string{"adapter", "status"}),
		adapterLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_call_duration_seconds",
			Help:      "Adapter call latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"adapter"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "adapter_breaker_state",
			Help:      "Circuit breaker state per adapter (0 closed, 1 open, 2 half-open).",
		}, []string{"adapter"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Completed searches by mode and final status.",
		}, []string{"mode", "status"}),
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		}, []string{"mode"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_confidence",
			Help:      "Overall confidence of completed searches.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		persistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Search sessions that failed to persist.",
		}),
	}
	reg.MustRegister(
		m.adapterCalls,
		m.adapterLatency,
		m.breakerState,
		m.searches,
		m.searchLatency,
		m.confidence,
		m.persistErrors,
	)
	return m
}

// ObserveAdapter records one settled adapter call.
func (m *Metrics) ObserveAdapter(adapter, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.adapterCalls.WithLabelValues(adapter, status).Inc()
	m.adapterLatency.WithLabelValues(adapter).Observe(d.Seconds())
}

// SetBreakerState records a breaker transition.
func (m *Metrics) SetBreakerState(adapter string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(adapter).Set(float64(state))
}

// ObserveSearch records a finished search.
func (m *Metrics) ObserveSearch(mode, status string, confidence int, d time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(mode, status).Inc()
	m.searchLatency.WithLabelValues(mode).Observe(d.Seconds())
	m.confidence.Observe(float64(confidence))
}

// PersistFailed counts a failed session save.
func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.persistErrors.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
