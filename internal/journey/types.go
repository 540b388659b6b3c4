package journey

import (
	"time"

	"github.com/quantboard/telemetry/internal/shared/id"
	"github.com/quantboard/telemetry/internal/shared/types"
)

// Status tracks a journey through its lifecycle
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusUnmounted Status = "unmounted"
)

// Attrs is a journey attribute map. Values are expected to be scalars
// (string, number, bool); the server drops anything nested.
type Attrs map[string]interface{}

// Event is a discrete, durationless occurrence attached to a journey
type Event struct {
	Name       string
	Timestamp  time.Time
	Attributes Attrs
	Priority   types.Priority
}

// Span is a timed sub-operation inside a journey, e.g. one outbound call
type Span struct {
	ID         id.SpanID
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Attributes Attrs
}

// Journey is a client-side trace: one named user interaction
type Journey struct {
	TraceID    id.TraceID
	SpanID     id.SpanID
	Name       string
	StartTime  time.Time
	EndTime    *time.Time // nil until finalized
	Status     Status
	Attributes Attrs
	Events     []Event
	Spans      []Span
}

// Duration reports the journey duration, zero while still open
func (j *Journey) Duration() time.Duration {
	if j.EndTime == nil {
		return 0
	}
	return j.EndTime.Sub(j.StartTime)
}

// Session describes one page load. The id is generated exactly once.
type Session struct {
	ID        id.SessionID
	CreatedAt time.Time
	UserAgent string
	URL       string
	Referrer  string
}

// NewSession creates a session for the current page load
func NewSession(userAgent, url, referrer string) Session {
	return Session{
		ID:        id.NewSessionID(),
		CreatedAt: time.Now(),
		UserAgent: userAgent,
		URL:       url,
		Referrer:  referrer,
	}
}

// BrowserInfo renders the session as batch-level wire metadata
func (s Session) BrowserInfo(phase Phase, now time.Time) types.BrowserInfo {
	return types.BrowserInfo{
		UserAgent:     s.UserAgent,
		URL:           s.URL,
		MarketSession: string(phase),
		Timestamp:     now.UnixMilli(),
	}
}

// Payload renders a finalized journey as a wire-format data object.
// Presence of "journey_name" is what the server discriminates on.
func (j *Journey) Payload() map[string]interface{} {
	events := make([]map[string]interface{}, 0, len(j.Events))
	for _, e := range j.Events {
		events = append(events, map[string]interface{}{
			"name":       e.Name,
			"timestamp":  e.Timestamp.UnixMilli(),
			"attributes": map[string]interface{}(e.Attributes),
			"priority":   string(e.Priority),
		})
	}

	spans := make([]map[string]interface{}, 0, len(j.Spans))
	for _, s := range j.Spans {
		attrs := make(map[string]interface{}, len(s.Attributes)+1)
		for k, v := range s.Attributes {
			attrs[k] = v
		}
		if _, ok := attrs["span.type"]; !ok {
			attrs["span.type"] = "client_operation"
		}
		spans = append(spans, map[string]interface{}{
			"span_id":    s.ID.String(),
			"name":       s.Name,
			"start_time": s.StartTime.UnixMilli(),
			"end_time":   s.EndTime.UnixMilli(),
			"duration":   float64(s.Duration) / float64(time.Millisecond),
			"attributes": attrs,
		})
	}

	payload := map[string]interface{}{
		"journey_name": j.Name,
		"trace_id":     j.TraceID.String(),
		"span_id":      j.SpanID.String(),
		"start_time":   j.StartTime.UnixMilli(),
		"duration":     float64(j.Duration()) / float64(time.Millisecond),
		"attributes":   map[string]interface{}(j.Attributes),
		"events":       events,
		"spans":        spans,
	}
	if j.EndTime != nil {
		payload["end_time"] = j.EndTime.UnixMilli()
	}
	return payload
}
