// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Structured Logging
//
// Logger wraps logrus with a JSON formatter. Fields land under "fields":
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("tenant_id", tenantID).Info("webhook registered")
//
// Request-scoped loggers carry request and account IDs:
//
//	observability.FromContext(ctx).Warn("profile cache unavailable")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordAuthorization("require_admin", err)
//	metrics.RecordPropagation("profile_updated", true)
//
// Record helpers tolerate a nil *Metrics so libraries can run unmetered.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	observability.RegisterHealthRoutes(router, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{...}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/middleware: Request ID and profile resolution middleware
package observability
