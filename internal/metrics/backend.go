package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backend fan-out Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trovex",
			Name:      "backend_requests_total",
			Help:      "Total number of backend search requests",
		},
		[]string{"engine", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trovex",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend search request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"engine"},
	)

	BackendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trovex",
			Name:      "backend_errors_total",
			Help:      "Total backend errors by type",
		},
		[]string{"engine", "error_type"},
	)

	SearchCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trovex",
			Name:      "search_candidates_total",
			Help:      "Result candidates counted at each aggregation stage",
		},
		[]string{"stage"}, // "fetched" / "deduped" / "returned"
	)

	AdmittedSourcesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trovex",
			Name:      "admitted_sources_total",
			Help:      "Sources admitted to the downstream store by tier",
		},
		[]string{"tier"},
	)

	SummaryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trovex",
			Name:      "summary_requests_total",
			Help:      "Total number of summary provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	SummaryRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trovex",
			Name:      "summary_request_duration_seconds",
			Help:      "Summary provider request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers backend metrics. Must be called once from main.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(BackendErrorsTotal)
	prometheus.MustRegister(SearchCandidatesTotal)
	prometheus.MustRegister(AdmittedSourcesTotal)
	prometheus.MustRegister(SummaryRequestsTotal)
	prometheus.MustRegister(SummaryRequestDuration)
	backendMetricsRegistered = true
}
