// Package observability provides logging, metrics, health checks, and
// OpenTelemetry wiring for the shelfd server.
//
// # Overview
//
// Structured JSON logging is built on stdlib slog. Prometheus metrics cover
// the HTTP surface, the book cache, and the authentication subsystem
// (logins, token verifications by outcome). Health checks probe PostgreSQL
// and Redis for readiness. OpenTelemetry traces and metrics are exported via
// OTLP gRPC when enabled.
//
// # Key Components
//
// Logger: structured logging with field chaining
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("email", email).Info("user logged in")
//
// Metrics: Prometheus registry and HTTP middleware
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	handler := observability.HTTPMetricsMiddleware(metrics)(router)
//
// HealthChecker: liveness and readiness endpoints
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	mux.HandleFunc("/health/live", checker.Liveness)
//	mux.HandleFunc("/health/ready", checker.Readiness)
package observability
