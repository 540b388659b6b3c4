package correlate

// Correlation headers carried on outbound business API calls.
const (
	HeaderTraceID      = "x-trace-id"
	HeaderParentSpanID = "x-parent-span-id"
	HeaderSession      = "x-browser-session"
	HeaderPortfolio    = "x-portfolio-id"

	// HeaderBackendAck is set on responses when the server recognized
	// the correlation context.
	HeaderBackendAck = "x-backend-trace-correlation"
)
