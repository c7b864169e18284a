/*
metrics.go - Prometheus instrumentation

PURPOSE:
  Counts ingest row outcomes and celebration firings, and times
  recompute-serving requests. Exposed on /metrics via promhttp.

SEE ALSO:
  - server.go: Mounts the /metrics endpoint
*/
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	IngestRows   *prometheus.CounterVec
	Celebrations prometheus.Counter
	Recompute    prometheus.Histogram
}

// NewMetrics builds and registers the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		IngestRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advance_engine",
			Name:      "ingest_rows_total",
			Help:      "Export rows processed, by outcome.",
		}, []string{"outcome"}),
		Celebrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "advance_engine",
			Name:      "celebrations_total",
			Help:      "Milestone celebration events fired.",
		}),
		Recompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advance_engine",
			Name:      "recompute_seconds",
			Help:      "Time spent resolving and pricing a selection.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.IngestRows, m.Celebrations, m.Recompute)
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
