package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the flood reporting API.
type Metrics struct {
	ReportsCreated  prometheus.Counter
	Verifications   *prometheus.CounterVec // labels: status
	EventsPublished *prometheus.CounterVec // labels: type, outcome={success,error,skipped}
	AreaAssignments *prometheus.CounterVec // labels: outcome={assigned,no_area,skipped,locked,error}
	StatsCache      *prometheus.CounterVec // labels: result={hit,miss}

	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route, status
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsCreated,
		m.Verifications,
		m.EventsPublished,
		m.AreaAssignments,
		m.StatsCache,
		m.HTTPRequestDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood",
			Name:      "reports_created_total",
			Help:      "Total damage reports accepted.",
		}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood",
			Name:      "report_verifications_total",
			Help:      "Report verifications by resulting status.",
		}, []string{"status"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood",
			Name:      "report_events_published_total",
			Help:      "Report lifecycle events handed to the broker by type and outcome.",
		}, []string{"type", "outcome"}),
		AreaAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood",
			Name:      "area_assignments_total",
			Help:      "Background area assignment attempts by outcome.",
		}, []string{"outcome"}),
		StatsCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood",
			Name:      "stats_cache_total",
			Help:      "Statistics cache lookups by result.",
		}, []string{"result"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flood",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route and status code.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}
