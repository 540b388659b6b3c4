/*
Package tracing provides the backend span layer on the OpenTelemetry SDK.

# Overview

This package owns the tracer provider (OTLP gRPC export, resource
attributes, sampling) and the span-helper primitive the rest of the
service builds on: run an operation inside a span, record failures and
panics, set the status, and guarantee the span closes on every exit
path. Where spans must carry client-reported times instead of server
wall-clock, the timed variant accepts explicit start and end instants.

# Usage

	provider, err := tracing.Setup(ctx, tracing.Config{
		ServiceName:  "telemetry-ingest",
		OTLPEndpoint: "localhost:4317",
		Enabled:      true,
	})
	defer provider.Shutdown(ctx)

	tracer := provider.Tracer("ingest")
	err = tracing.WithSpan(ctx, tracer, "process_batch", func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(attribute.Int("batch.size", n))
		return process(ctx)
	})

Export of finished spans to the trace store is entirely the SDK
exporter's concern; nothing downstream of this package touches it.
*/
package tracing
