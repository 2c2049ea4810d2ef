// Package observability provides structured logging, Prometheus metrics,
// health checks and optional OpenTelemetry tracing.
//
// # Structured Logging
//
// Create a logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("port", 8080).Info("Server started")
//
// Request-scoped logging:
//
//	logger := observability.FromContext(r.Context())
//	logger.WithError(err).Error("Record lookup failed")
//
// # Prometheus Metrics
//
// Initialize and register metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/interrogations", "200").Inc()
//
// # Health Checks
//
// Configure the health checker:
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	status := checker.Check(ctx)
//
// # Related Packages
//
//   - pkg/config: observability configuration
//   - pkg/httputil: request logging middleware
package observability
