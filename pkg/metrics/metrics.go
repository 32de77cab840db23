package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Upload pipeline metrics
	UploadsTotal      *prometheus.CounterVec
	UploadDuration    *prometheus.HistogramVec
	UploadsInProgress prometheus.Gauge
	RowsProcessed     *prometheus.CounterVec
	RowsDiscarded     *prometheus.CounterVec

	// Analysis metrics
	AnalysisQueries *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		UploadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csv_uploads_total",
				Help: "Total number of CSV uploads",
			},
			[]string{"slot", "status"},
		),

		UploadDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "csv_upload_duration_seconds",
				Help:    "CSV upload processing duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"slot"},
		),

		UploadsInProgress: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "csv_uploads_in_progress",
				Help: "Number of CSV uploads currently being processed",
			},
		),

		RowsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ad_rows_processed_total",
				Help: "Total number of ad rows retained after enrichment",
			},
			[]string{"slot"},
		),

		RowsDiscarded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ad_rows_discarded_total",
				Help: "Total number of uploaded rows discarded as non-ad rows",
			},
			[]string{"slot", "reason"},
		),

		AnalysisQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_queries_total",
				Help: "Total number of derived-view computations",
			},
			[]string{"kind"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Upload outcome metrics
func (m *Metrics) RecordUpload(slot, status string, duration time.Duration) {
	m.UploadsTotal.WithLabelValues(slot, status).Inc()
	m.UploadDuration.WithLabelValues(slot).Observe(duration.Seconds())
}

// Retained row counter
func (m *Metrics) RecordRowsProcessed(slot string, count int) {
	m.RowsProcessed.WithLabelValues(slot).Add(float64(count))
}

// Discarded row counter
func (m *Metrics) RecordRowDiscarded(slot, reason string) {
	m.RowsDiscarded.WithLabelValues(slot, reason).Inc()
}

// Derived-view computation counter
func (m *Metrics) RecordAnalysisQuery(kind string) {
	m.AnalysisQueries.WithLabelValues(kind).Inc()
}

// Uploads in progress counter
func (m *Metrics) IncUploadsInProgress() {
	m.UploadsInProgress.Inc()
}

// Uploads in progress counter
func (m *Metrics) DecUploadsInProgress() {
	m.UploadsInProgress.Dec()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
