package types

// Priority classifies a reported item for flush scheduling.
type Priority string

const (
	// PriorityNormal items wait for the usual batch triggers.
	PriorityNormal Priority = "normal"
	// PriorityCritical items force an immediate out-of-band flush.
	PriorityCritical Priority = "critical_event"
)

// EventEnvelope is one client-reported item inside a delivery batch.
// Data is shape-discriminated: a journey payload carries "journey_name",
// a standalone event payload carries only "name".
type EventEnvelope struct {
	Data      map[string]interface{} `json:"data"`
	Priority  Priority               `json:"priority"`
	Timestamp int64                  `json:"timestamp"` // unix milliseconds
}

// BrowserInfo carries session-level metadata alongside each batch.
type BrowserInfo struct {
	UserAgent     string `json:"user_agent"`
	URL           string `json:"url"`
	MarketSession string `json:"market_session"`
	Timestamp     int64  `json:"timestamp"`
}

// IngestRequest is the POST /telemetry/browser wire format.
// BatchID is a client-generated idempotency key; the server drops
// redelivered batches carrying a key it has already processed.
type IngestRequest struct {
	SessionID   string          `json:"session_id"`
	BatchID     string          `json:"batch_id,omitempty"`
	Events      []EventEnvelope `json:"events"`
	BrowserInfo BrowserInfo     `json:"browser_info"`
}

// IngestResponse is the success response body.
type IngestResponse struct {
	Status          string `json:"status"`
	ProcessedEvents int    `json:"processed_events"`
}
