package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WithSpan runs fn inside a span. Errors and panics are recorded on the
// span and the status is set accordingly; the span ends on every exit
// path, panics included.
func WithSpan(ctx context.Context, tracer trace.Tracer, name string, fn func(ctx context.Context, span trace.Span) error, opts ...trace.SpanStartOption) error {
	ctx, span := tracer.Start(ctx, name, opts...)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("panic: %v", r))
			span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
			panic(r)
		}
	}()

	if err := fn(ctx, span); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// WithSpanTimed is WithSpan for spans whose boundaries are reported by
// the client rather than measured here. Client timestamps are trusted,
// not re-derived.
func WithSpanTimed(ctx context.Context, tracer trace.Tracer, name string, start, end time.Time, fn func(ctx context.Context, span trace.Span) error, opts ...trace.SpanStartOption) error {
	opts = append(opts, trace.WithTimestamp(start))
	ctx, span := tracer.Start(ctx, name, opts...)
	defer span.End(trace.WithTimestamp(end))

	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("panic: %v", r))
			span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
			panic(r)
		}
	}()

	if err := fn(ctx, span); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
