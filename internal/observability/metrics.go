package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "world_risk_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ingestion service.
type Metrics struct {
	IngestRuns       *prometheus.CounterVec // labels: outcome={success,degraded,empty,rejected,error}
	RowsRejected     prometheus.Counter
	RecordsPublished prometheus.Gauge
	Unmapped         prometheus.Gauge
	IngestDuration   prometheus.Histogram
	PipelineRunning  prometheus.Gauge

	SourceFetches *prometheus.CounterVec // labels: outcome={success,retry,error}
	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by outcome.",
		}, []string{"outcome"}),
		RowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Total data rows rejected by validation.",
		}),
		RecordsPublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_published",
			Help:      "Number of country records in the current snapshot.",
		}),
		Unmapped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unmapped_countries",
			Help:      "Country names without a translation in the latest ingestion.",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete extract-ingest-load cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetch_total",
			Help:      "Remote source fetch attempts by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "API response cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.IngestRuns,
		m.RowsRejected,
		m.RecordsPublished,
		m.Unmapped,
		m.IngestDuration,
		m.PipelineRunning,
		m.SourceFetches,
		m.CacheLookups,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
