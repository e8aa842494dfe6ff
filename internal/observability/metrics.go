package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wind_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RowsLoaded         *prometheus.CounterVec // labels: source={inland,offshore}
	RowsRejected       prometheus.Counter
	RowsRemoved        *prometheus.CounterVec // labels: source={inland,offshore}
	RowsDroppedMissing prometheus.Counter
	RowsWritten        prometheus.Counter
	ReadingsPublished  prometheus.Counter
	LoadRetries        *prometheus.CounterVec // labels: loader
	PipelineRunning    prometheus.Gauge

	// Stage timing.
	StageDuration *prometheus.HistogramVec // labels: stage={extract,transform,load}
	LastSuccess   prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Rows parsed from the input tables.",
		}, []string{"source"}),
		RowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_rejected_total",
			Help:      "Malformed input rows skipped at load.",
		}),
		RowsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_removed_total",
			Help:      "Readings removed by the outlier filter.",
		}, []string{"source"}),
		RowsDroppedMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_missing_total",
			Help:      "Readings dropped because a screened field was missing.",
		}),
		RowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Readings in the cleaned dataset.",
		}),
		ReadingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_published_total",
			Help:      "Readings written to the Kafka sink topic.",
		}),
		LoadRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_retries_total",
			Help:      "Retried loader attempts by loader.",
		}, []string{"loader"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pipeline run.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsLoaded,
		m.RowsRejected,
		m.RowsRemoved,
		m.RowsDroppedMissing,
		m.RowsWritten,
		m.ReadingsPublished,
		m.LoadRetries,
		m.PipelineRunning,
		m.StageDuration,
		m.LastSuccess,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
