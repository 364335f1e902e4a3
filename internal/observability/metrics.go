package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// incident synchronization engine.
type Metrics struct {
	FeedDeliveries prometheus.Counter
	FeedErrors     prometheus.Counter
	AlertsFired    prometheus.Counter

	IncidentsCurrent prometheus.Gauge
	ActiveIncidents  prometheus.Gauge
	ConnectionState  prometheus.Gauge

	DeliveryDuration prometheus.Histogram

	StatusWrites *prometheus.CounterVec // labels: outcome={success,error}

	// Resource locator metrics.
	POIQueries      *prometheus.CounterVec // labels: outcome={success,error,stale}
	POIQueryLatency prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FeedDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "feed_deliveries_total",
			Help:      "Total change-feed snapshots applied.",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "feed_errors_total",
			Help:      "Total change-feed subscription failures.",
		}),
		AlertsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "alerts_fired_total",
			Help:      "Total critical SOS alerts raised for operators.",
		}),
		IncidentsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dispatch",
			Name:      "incidents_current",
			Help:      "Incidents in the latest applied snapshot.",
		}),
		ActiveIncidents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dispatch",
			Name:      "incidents_active_current",
			Help:      "Active incidents in the latest applied snapshot.",
		}),
		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dispatch",
			Name:      "feed_connection_state",
			Help:      "Feed session state: 0 disconnected, 1 subscribing, 2 live, 3 failed.",
		}),
		DeliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dispatch",
			Name:      "delivery_processing_duration_seconds",
			Help:      "Duration of one normalize-diff-replace cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		StatusWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "status_writes_total",
			Help:      "Operator status writes to the document store by outcome.",
		}, []string{"outcome"}),
		POIQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "poi_queries_total",
			Help:      "Nearby-resource queries by outcome.",
		}, []string{"outcome"}),
		POIQueryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dispatch",
			Name:      "poi_query_duration_seconds",
			Help:      "Geospatial index query duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
	}

	prometheus.MustRegister(
		m.FeedDeliveries,
		m.FeedErrors,
		m.AlertsFired,
		m.IncidentsCurrent,
		m.ActiveIncidents,
		m.ConnectionState,
		m.DeliveryDuration,
		m.StatusWrites,
		m.POIQueries,
		m.POIQueryLatency,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FeedDeliveries:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dispatch", Name: "feed_deliveries_total"}),
		FeedErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dispatch", Name: "feed_errors_total"}),
		AlertsFired:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dispatch", Name: "alerts_fired_total"}),
		IncidentsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "dispatch", Name: "incidents_current"}),
		ActiveIncidents:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "dispatch", Name: "incidents_active_current"}),
		ConnectionState:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "dispatch", Name: "feed_connection_state"}),
		DeliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "dispatch", Name: "delivery_processing_duration_seconds"}),
		StatusWrites:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dispatch", Name: "status_writes_total"}, []string{"outcome"}),
		POIQueries:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dispatch", Name: "poi_queries_total"}, []string{"outcome"}),
		POIQueryLatency:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "dispatch", Name: "poi_query_duration_seconds"}),
	}
}
