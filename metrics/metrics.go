// Package metrics exposes Prometheus metrics for the registry server and
// the security bench.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instruments shared by the HTTP API and the bench.
type Metrics struct {
	registry *prometheus.Registry

	// OperationsTotal counts registry operations by registry name,
	// operation, and outcome ("ok" or "rejected").
	OperationsTotal *prometheus.CounterVec

	// ViolationsTotal counts invariant violations surfaced by the bench,
	// by registry name and invariant.
	ViolationsTotal *prometheus.CounterVec

	// ExposureSeconds records the time-to-exposure of each bench trial.
	ExposureSeconds *prometheus.HistogramVec
}

// NewMetrics creates the instrument set under the given namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Registry operations by registry, operation, and outcome.",
		}, []string{"registry", "op", "outcome"}),
		ViolationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Invariant violations surfaced by the security bench.",
		}, []string{"registry", "invariant"}),
		ExposureSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "exposure_seconds",
			Help:      "Time-to-exposure of bench trials.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"contract"}),
	}
}

// RecordOperation counts one registry operation with its outcome.
func (m *Metrics) RecordOperation(registry, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	m.OperationsTotal.WithLabelValues(registry, op, outcome).Inc()
}

// MetricsServer serves the Prometheus scrape endpoint.
type MetricsServer struct {
	srv     *http.Server
	metrics *Metrics
}

// New creates a metrics server listening on the given address.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	metrics := NewMetrics(namespace)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		metrics: metrics,
	}, nil
}

// Metrics returns the instrument set served by this server.
func (s *MetricsServer) Metrics() *Metrics {
	return s.metrics
}

// ListenAndServe starts serving the scrape endpoint.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
