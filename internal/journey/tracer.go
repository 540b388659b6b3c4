package journey

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantboard/telemetry/internal/shared/id"
	"github.com/quantboard/telemetry/internal/shared/types"
)

// Sink receives finalized journeys and standalone critical events.
// TransportLayer implements it; tests substitute their own.
type Sink interface {
	Enqueue(data map[string]interface{}, priority types.Priority)
}

// Events on this list are delivered out-of-band the moment they occur
// instead of waiting for the owning journey to finish.
var criticalEvents = map[string]struct{}{
	"order_submitted": {},
	"order_rejected":  {},
	"trade_executed":  {},
	"api_error":       {},
	"session_error":   {},
}

// IsCriticalEvent reports whether an event name forces immediate delivery
func IsCriticalEvent(name string) bool {
	_, ok := criticalEvents[name]
	return ok
}

// Tracer owns the table of open journeys for one session. Construct one
// per session; there is no package-level instance.
type Tracer struct {
	mu      sync.Mutex
	active  map[id.TraceID]*Journey
	session Session
	sink    Sink
	timing  PageTimingSource
	vitals  VitalsSource
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Tracer
type Option func(*Tracer)

// WithClock substitutes the wall clock, for tests
func WithClock(now func() time.Time) Option {
	return func(t *Tracer) { t.now = now }
}

// WithPageTiming sets the page-load timing source
func WithPageTiming(src PageTimingSource) Option {
	return func(t *Tracer) { t.timing = src }
}

// WithVitals sets the web-vitals source
func WithVitals(src VitalsSource) Option {
	return func(t *Tracer) { t.vitals = src }
}

// NewTracer creates a tracer for one session
func NewTracer(session Session, sink Sink, logger *zap.Logger, opts ...Option) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		active:  make(map[id.TraceID]*Journey),
		session: session,
		sink:    sink,
		timing:  NoTiming{},
		vitals:  NewVitalsCollector(),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Session returns the session this tracer records against
func (t *Tracer) Session() Session {
	return t.session
}

// StartJourney opens a journey tied to a user action and returns its
// trace id. An empty name is rejected with a zero trace id.
func (t *Tracer) StartJourney(name string, attrs Attrs) id.TraceID {
	if name == "" {
		t.logger.Debug("journey start rejected: empty name")
		return ""
	}

	now := t.now()
	journey := &Journey{
		TraceID:   id.NewTraceID(),
		SpanID:    id.NewSpanID(),
		Name:      name,
		StartTime: now,
		Status:    StatusActive,
		Attributes: Attrs{
			"session.id":     t.session.ID.String(),
			"page.url":       t.session.URL,
			"market.session": string(ClassifySession(now)),
		},
	}

	if timing, ok := t.timing.Snapshot(); ok {
		journey.merge(timing.attrs())
	}
	journey.merge(attrs)

	t.mu.Lock()
	t.active[journey.TraceID] = journey
	t.mu.Unlock()

	t.logger.Debug("journey started",
		zap.String("trace_id", journey.TraceID.String()),
		zap.String("name", name),
	)
	return journey.TraceID
}

// AddJourneyEvent appends an event to an open journey. Critical events
// are additionally handed to the sink for immediate delivery.
func (t *Tracer) AddJourneyEvent(traceID id.TraceID, name string, attrs Attrs) {
	now := t.now()
	critical := IsCriticalEvent(name)

	priority := types.PriorityNormal
	if critical {
		priority = types.PriorityCritical
	}
	event := Event{
		Name:       name,
		Timestamp:  now,
		Attributes: attrs,
		Priority:   priority,
	}

	t.mu.Lock()
	journey, ok := t.active[traceID]
	if ok {
		journey.Events = append(journey.Events, event)
	}
	t.mu.Unlock()

	if !ok {
		t.logger.Debug("event dropped: unknown trace id",
			zap.String("trace_id", traceID.String()),
			zap.String("event", name),
		)
		return
	}

	if critical && t.sink != nil {
		t.sink.Enqueue(map[string]interface{}{
			"name":       name,
			"trace_id":   traceID.String(),
			"timestamp":  now.UnixMilli(),
			"attributes": map[string]interface{}(attrs),
		}, types.PriorityCritical)
	}
}

// AddJourneySpan appends a timed child operation to an open journey
func (t *Tracer) AddJourneySpan(traceID id.TraceID, name string, start, end time.Time, attrs Attrs) {
	if end.Before(start) {
		end = start
	}
	span := Span{
		ID:         id.NewSpanID(),
		Name:       name,
		StartTime:  start,
		EndTime:    end,
		Duration:   end.Sub(start),
		Attributes: attrs,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	journey, ok := t.active[traceID]
	if !ok {
		t.logger.Debug("span dropped: unknown trace id",
			zap.String("trace_id", traceID.String()),
			zap.String("span", name),
		)
		return
	}
	journey.Spans = append(journey.Spans, span)
}

// EndJourney finalizes a journey: computes duration, merges final
// attributes, attaches web vitals and heap usage, removes it from the
// active table, and hands it to the sink. A second call for the same id
// is a no-op because the id no longer resolves.
func (t *Tracer) EndJourney(traceID id.TraceID, attrs Attrs) {
	t.mu.Lock()
	journey, ok := t.active[traceID]
	if ok {
		delete(t.active, traceID)
	}
	t.mu.Unlock()

	if !ok {
		t.logger.Debug("end ignored: unknown trace id",
			zap.String("trace_id", traceID.String()),
		)
		return
	}

	t.finalize(journey, attrs, StatusCompleted)
}

// UnmountJourney finalizes a journey whose owning UI element was
// destroyed before the interaction completed
func (t *Tracer) UnmountJourney(traceID id.TraceID) {
	t.mu.Lock()
	journey, ok := t.active[traceID]
	if ok {
		delete(t.active, traceID)
	}
	t.mu.Unlock()

	if !ok {
		return
	}
	t.finalize(journey, nil, StatusUnmounted)
}

// CloseAll finalizes every open journey as unmounted. Called on page
// teardown before the transport's final flush.
func (t *Tracer) CloseAll() {
	t.mu.Lock()
	remaining := make([]*Journey, 0, len(t.active))
	for _, j := range t.active {
		remaining = append(remaining, j)
	}
	t.active = make(map[id.TraceID]*Journey)
	t.mu.Unlock()

	for _, j := range remaining {
		t.finalize(j, nil, StatusUnmounted)
	}
}

// JourneySpanID resolves the root span id of an open journey, for use
// as the parent-span-id on outbound correlated calls
func (t *Tracer) JourneySpanID(traceID id.TraceID) (id.SpanID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	journey, ok := t.active[traceID]
	if !ok {
		return "", false
	}
	return journey.SpanID, true
}

// ActiveCount reports how many journeys are currently open
func (t *Tracer) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}

func (t *Tracer) finalize(journey *Journey, attrs Attrs, status Status) {
	end := t.now()
	if end.Before(journey.StartTime) {
		end = journey.StartTime
	}
	journey.EndTime = &end
	journey.Status = status
	journey.merge(attrs)

	if vitals, ok := t.vitals.Snapshot(); ok {
		journey.merge(vitals.attrs())
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	journey.Attributes["memory.heap_alloc_bytes"] = float64(mem.HeapAlloc)

	// Callers may downgrade the status through final attributes.
	if s, ok := journey.Attributes["journey.status"].(string); ok {
		journey.Status = Status(s)
	} else {
		journey.Attributes["journey.status"] = string(journey.Status)
	}

	t.logger.Debug("journey finalized",
		zap.String("trace_id", journey.TraceID.String()),
		zap.String("name", journey.Name),
		zap.String("status", string(journey.Status)),
		zap.Duration("duration", journey.Duration()),
	)

	if t.sink != nil {
		t.sink.Enqueue(journey.Payload(), types.PriorityNormal)
	}
}

func (j *Journey) merge(attrs Attrs) {
	for k, v := range attrs {
		j.Attributes[k] = v
	}
}
