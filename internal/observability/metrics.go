package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the load
// pipeline and the dashboard API.
type Metrics struct {
	RowsRead           prometheus.Counter
	RowsDropped        *prometheus.CounterVec // labels: reason={date,country}
	DuplicateRows      prometheus.Counter
	GroupedRecords     prometheus.Gauge
	DatasetLoaded      prometheus.Gauge
	LoadDuration       prometheus.Histogram
	SummariesPublished prometheus.Counter
	PublishErrors      prometheus.Counter

	// Dashboard API metrics.
	APIRequests *prometheus.CounterVec // labels: endpoint, status
	ViewCache   *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsRead,
		m.RowsDropped,
		m.DuplicateRows,
		m.GroupedRecords,
		m.DatasetLoaded,
		m.LoadDuration,
		m.SummariesPublished,
		m.PublishErrors,
		m.APIRequests,
		m.ViewCache,
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
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "rows_read_total",
			Help:      "Total data rows read from the case file.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows excluded during cleaning by reason.",
		}, []string{"reason"}),
		DuplicateRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "duplicate_rows_total",
			Help:      "Rows collapsed into an existing (country, province, date) record.",
		}),
		GroupedRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_etl",
			Name:      "grouped_records",
			Help:      "Records in the loaded dataset after deduplication.",
		}),
		DatasetLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_etl",
			Name:      "dataset_loaded",
			Help:      "1 once the dataset is available to the API, 0 before.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_etl",
			Name:      "load_duration_seconds",
			Help:      "Duration of the extract-clean-load pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SummariesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "summaries_published_total",
			Help:      "Daily summaries written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "publish_errors_total",
			Help:      "Failed summary publish batches.",
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "api_requests_total",
			Help:      "Dashboard API requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		ViewCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "view_cache_total",
			Help:      "Dashboard view cache lookups by result.",
		}, []string{"result"}),
	}
}
