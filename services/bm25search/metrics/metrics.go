// Package metrics exposes Prometheus counters and histograms for ingest
// throughput and query latency/volume.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. Safe for concurrent
// use (every prometheus.Collector is).
type Metrics struct {
	ingestTotal    *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	queryTotal     *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	noop           bool
}

// New registers a fresh set of collectors against reg. Pass
// prometheus.NewRegistry() in tests to avoid polluting the global default
// registry; pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ingestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bm25search",
			Name:      "ingest_records_total",
			Help:      "Count of records processed by upload_documents/upload_queries, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ingestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bm25search",
			Name:      "ingest_duration_seconds",
			Help:      "Wall-clock duration of one ingest call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		queryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bm25search",
			Name:      "query_total",
			Help:      "Count of queries executed, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bm25search",
			Name:      "query_duration_seconds",
			Help:      "Wall-clock duration of one search_documents/search_queries/search_graphs batch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.ingestTotal, m.ingestDuration, m.queryTotal, m.queryDuration)
	return m
}

// NewNoop returns a Metrics that records nothing and never needs a
// registry, for callers (tests, one-off CLI invocations) that don't want
// Prometheus wiring.
func NewNoop() *Metrics {
	return &Metrics{noop: true}
}

// ObserveIngest records the outcome of one ingest call.
func (m *Metrics) ObserveIngest(operation string, inserted, skipped, failed int, err error) {
	if m == nil || m.noop {
		return
	}
	m.ingestTotal.WithLabelValues(operation, "inserted").Add(float64(inserted))
	m.ingestTotal.WithLabelValues(operation, "skipped").Add(float64(skipped))
	m.ingestTotal.WithLabelValues(operation, "failed").Add(float64(failed))
	if err != nil {
		m.ingestTotal.WithLabelValues(operation, "error").Inc()
	}
}

// TimeIngest returns a function to defer that records the elapsed
// duration of an ingest call under operation.
func (m *Metrics) TimeIngest(operation string) func() {
	if m == nil || m.noop {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.ingestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// ObserveQuery records the outcome of one query batch.
func (m *Metrics) ObserveQuery(operation string, batchSize int, err error) {
	if m == nil || m.noop {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.queryTotal.WithLabelValues(operation, outcome).Add(float64(batchSize))
}

// TimeQuery returns a function to defer that records the elapsed duration
// of a query batch under operation.
func (m *Metrics) TimeQuery(operation string) func() {
	if m == nil || m.noop {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.queryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
