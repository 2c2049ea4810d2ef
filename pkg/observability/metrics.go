package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Auth metrics
	LoginAttemptsTotal  *prometheus.CounterVec
	TokensIssuedTotal   prometheus.Counter
	AccessDeniedTotal   *prometheus.CounterVec

	// File metrics
	UploadsTotal        *prometheus.CounterVec
	UploadSizeBytes     prometheus.Histogram
	FilesDeletedTotal   *prometheus.CounterVec

	// Transcription metrics
	TranscriptionsTotal    *prometheus.CounterVec
	TranscriptionDuration  prometheus.Histogram

	// Document generation metrics
	DocumentsGeneratedTotal *prometheus.CounterVec
	DocumentSizeBytes       prometheus.Histogram

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protokol_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "protokol_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "protokol_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protokol_login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"outcome"},
		),
		TokensIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "protokol_tokens_issued_total",
				Help: "Total number of access tokens issued",
			},
		),
		AccessDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protokol_access_denied_total",
				Help: "Total number of authorization denials",
			},
			[]string{"resource"},
		),

		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protokol_uploads_total",
				Help: "Total number of audio uploads",
			},
			[]string{"status"},
		),
		UploadSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protokol_upload_size_bytes",
				Help:    "Uploaded audio file size in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		FilesDeletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protokol_files_deleted_total",
				Help: "Total number of files removed by the janitor",
			},
			[]string{"reason"},
		),

		TranscriptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protokol_transcriptions_total",
				Help: "Total number of transcription requests",
			},
			[]string{"status"},
		),
		TranscriptionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protokol_transcription_duration_seconds",
				Help:    "Transcription request duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),

		DocumentsGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protokol_documents_generated_total",
				Help: "Total number of generated documents",
			},
			[]string{"format", "status"},
		),
		DocumentSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protokol_document_size_bytes",
				Help:    "Generated document size in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "protokol_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "protokol_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.LoginAttemptsTotal,
		m.TokensIssuedTotal,
		m.AccessDeniedTotal,
		m.UploadsTotal,
		m.UploadSizeBytes,
		m.FilesDeletedTotal,
		m.TranscriptionsTotal,
		m.TranscriptionDuration,
		m.DocumentsGeneratedTotal,
		m.DocumentSizeBytes,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// CollectDBStats copies connection pool stats into the gauges
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
