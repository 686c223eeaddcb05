package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the correlation pipeline.
type Metrics struct {
	RunsTotal      prometheus.Counter
	RunFailures    prometheus.Counter
	RunDuration    prometheus.Histogram
	PipelineActive prometheus.Gauge

	// Per-catalog counters, labelled kind={CME,GST}.
	RecordsFetched  *prometheus.CounterVec
	LinksNormalized *prometheus.CounterVec
	CatalogCache    *prometheus.CounterVec // labels: kind, result={hit,miss,error}

	PairsCorrelated  prometheus.Counter
	NegativeDelays   prometheus.Counter
	DelayMeanHours   prometheus.Gauge
	DelayMedianHours prometheus.Gauge

	SinkErrors *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunFailures,
		m.RunDuration,
		m.PipelineActive,
		m.RecordsFetched,
		m.LinksNormalized,
		m.CatalogCache,
		m.PairsCorrelated,
		m.NegativeDelays,
		m.DelayMeanHours,
		m.DelayMedianHours,
		m.SinkErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "space_weather_etl",
			Name:      "runs_total",
			Help:      "Total correlation runs started.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "space_weather_etl",
			Name:      "run_failures_total",
			Help:      "Total correlation runs that ended in an error.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "space_weather_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-correlate-export run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "space_weather_etl",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		RecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "space_weather_etl",
			Name:      "records_fetched_total",
			Help:      "Raw catalog records handed to the normalizer, by catalog.",
		}, []string{"kind"}),
		LinksNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "space_weather_etl",
			Name:      "links_normalized_total",
			Help:      "Cross-catalog links kept by the normalizer, by catalog.",
		}, []string{"kind"}),
		CatalogCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "space_weather_etl",
			Name:      "catalog_cache_total",
			Help:      "Catalog cache lookups by catalog and result.",
		}, []string{"kind", "result"}),
		PairsCorrelated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "space_weather_etl",
			Name:      "pairs_correlated_total",
			Help:      "Total CME/GST pairs produced by the join.",
		}),
		NegativeDelays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "space_weather_etl",
			Name:      "negative_delays_total",
			Help:      "Pairs whose GST starts before the linked CME.",
		}),
		DelayMeanHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "space_weather_etl",
			Name:      "delay_mean_hours",
			Help:      "Mean CME to GST delay of the last run with data.",
		}),
		DelayMedianHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "space_weather_etl",
			Name:      "delay_median_hours",
			Help:      "Median CME to GST delay of the last run with data.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "space_weather_etl",
			Name:      "sink_errors_total",
			Help:      "Export failures by sink.",
		}, []string{"sink"}),
	}
}
