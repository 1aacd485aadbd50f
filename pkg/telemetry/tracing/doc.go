// Package tracing provides OpenTelemetry spans for the snippet engine.
//
// The HTTP host opens one server span per request, continuing any W3C
// trace context sent by the client, and every lifecycle stage (early,
// conditional, head, footer) runs in a child span. Spans are exported
// over OTLP gRPC.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "operation")
//	defer span.End()
//
// When tracing is disabled New returns a tracer backed by a no-op provider,
// so callers never need to check Enabled before starting spans.
package tracing
