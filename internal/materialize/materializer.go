package materialize

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/quantboard/telemetry/internal/infrastructure/tracing"
	"github.com/quantboard/telemetry/internal/shared/types"
)

// Publisher receives a summary of every materialized span. The live
// debug feed implements it; a nil publisher disables publishing.
type Publisher interface {
	Publish(SpanSummary)
}

// SpanSummary is a compact view of one materialized span
type SpanSummary struct {
	Name       string    `json:"name"`
	TraceID    string    `json:"trace_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	DurationMs float64   `json:"duration_ms"`
	Score      *int      `json:"performance_score,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Materializer converts decoded payloads into backend spans
type Materializer struct {
	tracer trace.Tracer
	logger *zap.Logger
	feed   Publisher
	now    func() time.Time
}

// Option configures a Materializer
type Option func(*Materializer)

// WithFeed publishes a summary of each materialized span
func WithFeed(feed Publisher) Option {
	return func(m *Materializer) { m.feed = feed }
}

// WithClock substitutes the wall clock, for tests
func WithClock(now func() time.Time) Option {
	return func(m *Materializer) { m.now = now }
}

// New creates a materializer writing spans through the given tracer
func New(tracer trace.Tracer, logger *zap.Logger, opts ...Option) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Materializer{
		tracer: tracer,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record materializes one decoded payload into a backend span.
// receivedAt is the envelope timestamp, used when the payload itself
// reports no times.
func (m *Materializer) Record(ctx context.Context, p Payload, receivedAt int64, sessionID string, info types.BrowserInfo) error {
	switch v := p.(type) {
	case *JourneyPayload:
		return m.recordJourney(ctx, v, receivedAt, sessionID, info)
	case *EventPayload:
		return m.recordEvent(ctx, v, receivedAt, sessionID, info)
	default:
		return ErrUnrecognizedPayload
	}
}

func (m *Materializer) recordJourney(ctx context.Context, p *JourneyPayload, receivedAt int64, sessionID string, info types.BrowserInfo) error {
	name := "browser.journey." + p.Name
	start, end := m.journeyBounds(p, receivedAt)

	var score *int
	return tracing.WithSpanTimed(ctx, m.tracer, name, start, end, func(ctx context.Context, span trace.Span) error {
		span.SetAttributes(m.commonAttrs(p.TraceID, sessionID, info)...)
		span.SetAttributes(flatten(p.Attributes)...)
		span.SetAttributes(attribute.Float64("browser.duration_ms", p.Duration))

		for _, e := range p.Events {
			opts := []trace.EventOption{trace.WithAttributes(flatten(e.Attributes)...)}
			if e.Timestamp > 0 {
				opts = append(opts, trace.WithTimestamp(time.UnixMilli(e.Timestamp)))
			}
			span.AddEvent(e.Name, opts...)
		}

		for _, s := range p.Spans {
			m.recordChildSpan(ctx, s)
		}

		if status, _ := asString(p.Attributes["journey.status"]); status == "completed" {
			s := m.scoreJourney(p.Attributes)
			score = &s
			span.SetAttributes(attribute.Int("performance.score", s))
		}

		m.publish(SpanSummary{
			Name:       name,
			TraceID:    p.TraceID,
			SessionID:  sessionID,
			DurationMs: p.Duration,
			Score:      score,
			RecordedAt: m.now(),
		})
		return nil
	}, trace.WithSpanKind(trace.SpanKindServer))
}

func (m *Materializer) recordChildSpan(ctx context.Context, s SubSpan) {
	start := time.UnixMilli(s.StartTime)
	end := time.UnixMilli(s.EndTime)
	if s.EndTime == 0 {
		end = start.Add(time.Duration(s.Duration * float64(time.Millisecond)))
	}

	_ = tracing.WithSpanTimed(ctx, m.tracer, s.Name, start, end, func(_ context.Context, span trace.Span) error {
		span.SetAttributes(flatten(s.Attributes)...)
		span.SetAttributes(attribute.Float64("browser.duration_ms", s.Duration))
		return nil
	})
}

func (m *Materializer) recordEvent(ctx context.Context, p *EventPayload, receivedAt int64, sessionID string, info types.BrowserInfo) error {
	name := "browser.event." + p.Name

	at := p.Timestamp
	if at == 0 {
		at = receivedAt
	}
	instant := time.UnixMilli(at)
	if at == 0 {
		instant = m.now()
	}

	return tracing.WithSpanTimed(ctx, m.tracer, name, instant, instant, func(_ context.Context, span trace.Span) error {
		span.SetAttributes(m.commonAttrs(p.TraceID, sessionID, info)...)
		span.SetAttributes(flatten(p.Attributes)...)

		m.publish(SpanSummary{
			Name:       name,
			TraceID:    p.TraceID,
			SessionID:  sessionID,
			RecordedAt: m.now(),
		})
		return nil
	}, trace.WithSpanKind(trace.SpanKindServer))
}

// journeyBounds resolves span boundaries from whatever the client
// reported: explicit times win, then duration anchored at the envelope
// timestamp, then a zero-length span at receipt.
func (m *Materializer) journeyBounds(p *JourneyPayload, receivedAt int64) (time.Time, time.Time) {
	if p.StartTime > 0 && p.EndTime >= p.StartTime {
		return time.UnixMilli(p.StartTime), time.UnixMilli(p.EndTime)
	}

	var end time.Time
	if receivedAt > 0 {
		end = time.UnixMilli(receivedAt)
	} else {
		end = m.now()
	}
	start := end.Add(-time.Duration(p.Duration * float64(time.Millisecond)))
	return start, end
}

func (m *Materializer) scoreJourney(attrs map[string]interface{}) int {
	lcp, _ := vital(attrs, "lcp")
	fid, _ := vital(attrs, "fid")
	cls, _ := vital(attrs, "cls")
	return PerformanceScore(lcp, fid, cls)
}

func (m *Materializer) commonAttrs(traceID, sessionID string, info types.BrowserInfo) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("browser.session_id", sessionID),
	}
	if traceID != "" {
		attrs = append(attrs, attribute.String("browser.trace_id", traceID))
	}
	if info.UserAgent != "" {
		attrs = append(attrs, attribute.String("browser.user_agent", info.UserAgent))
	}
	if info.URL != "" {
		attrs = append(attrs, attribute.String("browser.page_url", info.URL))
	}
	if info.MarketSession != "" {
		attrs = append(attrs, attribute.String("browser.market_session", info.MarketSession))
	}
	return attrs
}

func (m *Materializer) publish(summary SpanSummary) {
	if m.feed != nil {
		m.feed.Publish(summary)
	}
}
