// Package telemetry exposes Prometheus metrics for the query and
// ingestion pipelines.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline instruments on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	queryTotal        *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	chunksIngested    prometheus.Counter
	documentsIngested prometheus.Counter
	connectorTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers the instrument set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholaris",
			Subsystem: "query",
			Name:      "total",
			Help:      "Total queries processed by status.",
		},
		[]string{"status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scholaris",
			Subsystem: "query",
			Name:      "stage_duration_seconds",
			Help:      "Per-stage query latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
	chunksIngested := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scholaris",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total chunks written to the index.",
		},
	)
	documentsIngested := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "scholaris",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total documents ingested.",
		},
	)
	connectorTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scholaris",
			Subsystem: "connector",
			Name:      "requests_total",
			Help:      "Literature connector searches by source and status.",
		},
		[]string{"source", "status"},
	)

	registry.MustRegister(queryTotal, stageDuration, chunksIngested, documentsIngested, connectorTotal)

	return &Metrics{
		registry:          registry,
		queryTotal:        queryTotal,
		stageDuration:     stageDuration,
		chunksIngested:    chunksIngested,
		documentsIngested: documentsIngested,
		connectorTotal:    connectorTotal,
	}
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStage records one pipeline stage's latency.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// FinishQuery records a completed query.
func (m *Metrics) FinishQuery(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.queryTotal.WithLabelValues(status).Inc()
}

// RecordIngest records a finished document ingestion.
func (m *Metrics) RecordIngest(chunks int) {
	m.documentsIngested.Inc()
	m.chunksIngested.Add(float64(chunks))
}

// RecordConnector records one literature source search.
func (m *Metrics) RecordConnector(source string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.connectorTotal.WithLabelValues(source, status).Inc()
}
