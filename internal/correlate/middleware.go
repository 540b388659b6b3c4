package correlate

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Middleware extracts browser correlation headers from inbound requests
// and attaches them to the active request span. Must run after the
// tracing middleware so a request span is already on the context.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			c.Next()
			return
		}

		span := trace.SpanFromContext(c.Request.Context())
		attrs := []attribute.KeyValue{
			attribute.String("browser.trace_id", traceID),
		}
		if parent := c.GetHeader(HeaderParentSpanID); parent != "" {
			attrs = append(attrs, attribute.String("browser.parent_span_id", parent))
		}
		if session := c.GetHeader(HeaderSession); session != "" {
			attrs = append(attrs, attribute.String("browser.session_id", session))
		}
		if portfolio := c.GetHeader(HeaderPortfolio); portfolio != "" {
			attrs = append(attrs, attribute.String("browser.portfolio_id", portfolio))
		}
		span.SetAttributes(attrs...)

		c.Header(HeaderBackendAck, "true")
		c.Next()
	}
}
