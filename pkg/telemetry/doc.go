// Package telemetry groups the observability packages of the snippet engine.
//
// # Components
//
//   - logging: structured slog loggers and request-scoped context fields
//   - metrics: Prometheus metrics for dispatch decisions and caching
//   - tracing: OpenTelemetry spans for HTTP requests and lifecycle stages
//
// # Usage
//
//	cfg := config.GetConfig()
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(ctx)
package telemetry
