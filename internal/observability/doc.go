// Package observability provides logging, metrics, and tracing
// functionality for the pathhint listener.
//
// # Logging
//
// The Logger interface provides structured logging backed by zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("connection closed",
//	    observability.String("connection_id", id),
//	    observability.Int("status", 404),
//	)
//
// # Metrics
//
// Prometheus metrics for connections, resolutions and responses:
//
//	metrics := observability.NewMetrics("pathhint")
//	handler := metrics.Handler()
//
// # Tracing
//
// OpenTelemetry tracing with OTLP gRPC export, one span per connection:
//
//	tracer, err := observability.NewTracer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(ctx)
package observability
