// Package observability provides structured logging, Prometheus metrics, and health checks.
//
// # Overview
//
// This package centralizes observability infrastructure for the portico SSO
// gateway: JSON logging via slog, metrics collection for the SSO flow, and
// liveness/readiness probes served on the health port.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithProvider(providerID).Info("login initiated")
//
// Context-aware logging:
//
//	logger := observability.FromContext(r.Context())
//	logger.WithError(err).Error("assertion verification failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics(nil)
//	metrics.LoginInitiationsTotal.WithLabelValues("okta-prod").Inc()
//	metrics.ObserveCallback("okta-prod", "verified")
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(db)
//	mux.HandleFunc("/health/live", checker.Liveness)
//	mux.HandleFunc("/health/ready", checker.Readiness)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability
