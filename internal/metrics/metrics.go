// Package metrics exposes Prometheus instrumentation for the HTTP API and
// the listing ingestion job. Collectors register with the default registry
// through promauto and are served by promhttp at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estates_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estates_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "estates_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Ingestion Metrics
	IngestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estates_ingest_runs_total",
			Help: "Total number of ingestion runs by outcome",
		},
		[]string{"outcome"}, // "completed", "failed", "skipped"
	)

	IngestFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estates_ingest_files_total",
			Help: "Total number of listing files handled by outcome",
		},
		[]string{"outcome"}, // "processed", "errored"
	)

	IngestRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estates_ingest_rows_total",
			Help: "Total number of listing rows by result",
		},
		[]string{"result"}, // "inserted", "skipped"
	)

	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "estates_ingest_run_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	IngestActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "estates_ingest_active",
			Help: "1 while an ingestion run is in progress",
		},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordIngestRun records the totals of a finished ingestion run.
func RecordIngestRun(filesProcessed, filesErrored int, rowsInserted, rowsSkipped int64, duration time.Duration, err error) {
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	IngestRunsTotal.WithLabelValues(outcome).Inc()
	IngestFilesTotal.WithLabelValues("processed").Add(float64(filesProcessed))
	IngestFilesTotal.WithLabelValues("errored").Add(float64(filesErrored))
	IngestRowsTotal.WithLabelValues("inserted").Add(float64(rowsInserted))
	IngestRowsTotal.WithLabelValues("skipped").Add(float64(rowsSkipped))
	IngestRunDuration.Observe(duration.Seconds())
}

// RecordIngestSkipped counts a trigger that arrived while a run was active.
func RecordIngestSkipped() {
	IngestRunsTotal.WithLabelValues("skipped").Inc()
}

// SetIngestActive flips the in-progress gauge.
func SetIngestActive(active bool) {
	if active {
		IngestActive.Set(1)
	} else {
		IngestActive.Set(0)
	}
}
