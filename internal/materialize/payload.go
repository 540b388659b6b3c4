package materialize

import "errors"

// ErrUnrecognizedPayload marks a data object that is neither a journey
// nor a standalone event.
var ErrUnrecognizedPayload = errors.New("unrecognized telemetry payload shape")

// Payload is the tagged variant decoded from a client event's data object
type Payload interface {
	payload()
}

// JourneyPayload is a finalized client journey
type JourneyPayload struct {
	Name       string
	TraceID    string
	SpanID     string
	StartTime  int64   // unix ms, 0 when unreported
	EndTime    int64   // unix ms, 0 when unreported
	Duration   float64 // ms
	Attributes map[string]interface{}
	Events     []SubEvent
	Spans      []SubSpan
}

// EventPayload is a standalone critical event delivered out-of-band
type EventPayload struct {
	Name       string
	TraceID    string
	Timestamp  int64 // unix ms
	Attributes map[string]interface{}
}

// SubEvent is a discrete occurrence recorded on a journey
type SubEvent struct {
	Name       string
	Timestamp  int64
	Attributes map[string]interface{}
}

// SubSpan is a timed child operation recorded on a journey
type SubSpan struct {
	Name       string
	SpanID     string
	StartTime  int64
	EndTime    int64
	Duration   float64
	Attributes map[string]interface{}
}

func (*JourneyPayload) payload() {}
func (*EventPayload) payload()   {}

// Decode discriminates a raw data object by shape. Presence of
// "journey_name" wins; a bare "name" makes a standalone event.
func Decode(data map[string]interface{}) (Payload, error) {
	if data == nil {
		return nil, ErrUnrecognizedPayload
	}

	if name, ok := asString(data["journey_name"]); ok && name != "" {
		return decodeJourney(name, data), nil
	}
	if name, ok := asString(data["name"]); ok && name != "" {
		return decodeEvent(name, data), nil
	}
	return nil, ErrUnrecognizedPayload
}

func decodeJourney(name string, data map[string]interface{}) *JourneyPayload {
	p := &JourneyPayload{
		Name:       name,
		Attributes: asMap(data["attributes"]),
	}
	p.TraceID, _ = asString(data["trace_id"])
	p.SpanID, _ = asString(data["span_id"])
	p.StartTime = asInt64(data["start_time"])
	p.EndTime = asInt64(data["end_time"])
	p.Duration = asFloat(data["duration"])

	for _, raw := range asSlice(data["events"]) {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		eventName, _ := asString(entry["name"])
		p.Events = append(p.Events, SubEvent{
			Name:       eventName,
			Timestamp:  asInt64(entry["timestamp"]),
			Attributes: asMap(entry["attributes"]),
		})
	}

	for _, raw := range asSlice(data["spans"]) {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		spanName, _ := asString(entry["name"])
		spanID, _ := asString(entry["span_id"])
		p.Spans = append(p.Spans, SubSpan{
			Name:       spanName,
			SpanID:     spanID,
			StartTime:  asInt64(entry["start_time"]),
			EndTime:    asInt64(entry["end_time"]),
			Duration:   asFloat(entry["duration"]),
			Attributes: asMap(entry["attributes"]),
		})
	}

	return p
}

func decodeEvent(name string, data map[string]interface{}) *EventPayload {
	p := &EventPayload{
		Name:       name,
		Timestamp:  asInt64(data["timestamp"]),
		Attributes: asMap(data["attributes"]),
	}
	p.TraceID, _ = asString(data["trace_id"])
	return p
}

// JSON numbers arrive as float64; in-process producers may hand over
// native integer types. Both are accepted.

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case float32:
		return int64(n)
	}
	return 0
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asSlice(v interface{}) []interface{} {
	switch s := v.(type) {
	case []interface{}:
		return s
	case []map[string]interface{}:
		out := make([]interface{}, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out
	}
	return nil
}
