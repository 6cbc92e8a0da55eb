package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quakescope"

// Metrics holds the Prometheus collectors shared by the service components.
type Metrics struct {
	// Backend client metrics.
	BackendRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	BackendDuration *prometheus.HistogramVec // labels: endpoint

	// Cache metrics.
	CacheRefreshes    *prometheus.CounterVec // labels: outcome={success,error}
	CachedEarthquakes prometheus.Gauge
	PairFallbacks     prometheus.Counter

	// Ingestion metrics.
	IngestedEarthquakes prometheus.Counter
	IngestErrors        prometheus.Counter

	// Alert metrics.
	AlertsRaised      *prometheus.CounterVec // labels: severity
	AlertPublishFails *prometheus.CounterVec // labels: sink
	StreamSubscribers prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		CacheRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_refreshes_total",
			Help:      "Cache refreshes by outcome.",
		}, []string{"outcome"}),
		CachedEarthquakes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_earthquakes",
			Help:      "Number of earthquakes held in the local cache.",
		}),
		PairFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pair_fallbacks_total",
			Help:      "Pair listings served from the local cache after a backend failure.",
		}),
		IngestedEarthquakes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_earthquakes_total",
			Help:      "Earthquakes stored by the background poller.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_errors_total",
			Help:      "Failures while polling or storing earthquakes.",
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Proximity alerts raised by severity.",
		}, []string{"severity"}),
		AlertPublishFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_publish_failures_total",
			Help:      "Alert deliveries that a sink rejected.",
		}, []string{"sink"}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_subscribers",
			Help:      "Active alert stream subscribers.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.BackendRequests,
		m.BackendDuration,
		m.CacheRefreshes,
		m.CachedEarthquakes,
		m.PairFallbacks,
		m.IngestedEarthquakes,
		m.IngestErrors,
		m.AlertsRaised,
		m.AlertPublishFails,
		m.StreamSubscribers,
	}
}
