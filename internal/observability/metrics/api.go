package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIMetrics covers the question pipeline: run outcomes by terminal state,
// latency, per-tier document yield and page-cache effectiveness.
type APIMetrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	tierDocuments *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

func NewAPIMetrics(service string) *APIMetrics {
	registry := prometheus.NewRegistry()

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nota",
			Subsystem: "query",
			Name:      "runs_total",
			Help:      "Total answered questions by terminal state.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"state"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nota",
			Subsystem: "query",
			Name:      "run_duration_seconds",
			Help:      "End-to-end question run duration by terminal state.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"state"},
	)
	tierDocuments := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nota",
			Subsystem: "query",
			Name:      "tier_documents_total",
			Help:      "Candidate sentences contributed per retrieval tier.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"tier"},
	)
	cacheLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nota",
			Subsystem: "query",
			Name:      "page_cache_lookups_total",
			Help:      "Page cache lookups by result.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"result"},
	)
	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nota",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status class.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nota",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"route"},
	)

	registry.MustRegister(runsTotal, runDuration, tierDocuments, cacheLookups, httpRequests, httpDuration)

	return &APIMetrics{
		registry:      registry,
		runsTotal:     runsTotal,
		runDuration:   runDuration,
		tierDocuments: tierDocuments,
		cacheLookups:  cacheLookups,
		httpRequests:  httpRequests,
		httpDuration:  httpDuration,
	}
}

func (m *APIMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *APIMetrics) ObserveRun(state string, duration time.Duration) {
	m.runsTotal.WithLabelValues(state).Inc()
	m.runDuration.WithLabelValues(state).Observe(duration.Seconds())
}

func (m *APIMetrics) AddTierDocuments(tier string, n int) {
	if n <= 0 {
		return
	}
	m.tierDocuments.WithLabelValues(tier).Add(float64(n))
}

func (m *APIMetrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *APIMetrics) ObserveHTTP(route string, statusCode int, duration time.Duration) {
	status := "2xx"
	switch {
	case statusCode >= 500:
		status = "5xx"
	case statusCode >= 400:
		status = "4xx"
	case statusCode >= 300:
		status = "3xx"
	}
	m.httpRequests.WithLabelValues(route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}
