// Package metrics exposes Prometheus collectors for the discovery service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapeRequestsTotal        *prometheus.CounterVec
	sourceDurationSeconds      *prometheus.HistogramVec
	fetchAttemptsTotal         *prometheus.CounterVec
	businessesExtractedTotal   *prometheus.CounterVec
	mockFallbacksTotal         *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapeRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_scrape_requests_total",
				Help: "Total scrape requests, labeled by requested source and result.",
			},
			[]string{"source", "result"},
		)

		sourceDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadscout_source_duration_seconds",
				Help:    "Histogram of per-source scrape durations.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 35},
			},
			[]string{"source"},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_fetch_attempts_total",
				Help: "Total candidate fetches, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		businessesExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_businesses_extracted_total",
				Help: "Total business records extracted from real pages, labeled by source.",
			},
			[]string{"source"},
		)

		mockFallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscout_mock_fallbacks_total",
				Help: "Times a source exhausted its candidates and fell back to sample data.",
			},
			[]string{"source"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 35},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape records one finished scrape request.
func ObserveScrape(source, result string) {
	if scrapeRequestsTotal == nil {
		return
	}
	scrapeRequestsTotal.WithLabelValues(source, result).Inc()
}

// ObserveSourceDuration records how long one source took within a request.
func ObserveSourceDuration(source string, d time.Duration) {
	if sourceDurationSeconds == nil {
		return
	}
	sourceDurationSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveFetch records one candidate fetch attempt.
func ObserveFetch(source, outcome string) {
	if fetchAttemptsTotal == nil {
		return
	}
	fetchAttemptsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveExtraction records extracted record counts per source.
func ObserveExtraction(source string, count int) {
	if businessesExtractedTotal == nil || count <= 0 {
		return
	}
	businessesExtractedTotal.WithLabelValues(source).Add(float64(count))
}

// ObserveMockFallback records a source falling back to synthesized data.
func ObserveMockFallback(source string) {
	if mockFallbacksTotal == nil {
		return
	}
	mockFallbacksTotal.WithLabelValues(source).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
