package ingest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantboard/telemetry/internal/infrastructure/monitoring"
	"github.com/quantboard/telemetry/internal/materialize"
	"github.com/quantboard/telemetry/internal/shared/types"
)

// Handler serves the telemetry ingestion endpoint
type Handler struct {
	materializer *materialize.Materializer
	dedup        *Deduper
	metrics      *monitoring.Metrics
	logger       *zap.Logger
}

// NewHandler creates the ingestion handler. dedup may be nil to disable
// idempotency tracking.
func NewHandler(materializer *materialize.Materializer, dedup *Deduper, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		materializer: materializer,
		dedup:        dedup,
		metrics:      metrics,
		logger:       logger,
	}
}

// IngestBrowserTelemetry handles POST /telemetry/browser
func (h *Handler) IngestBrowserTelemetry(c *gin.Context) {
	var req types.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.reject(c, "request body does not parse", err)
		return
	}
	if req.SessionID == "" || req.Events == nil {
		h.reject(c, "missing session_id or events", nil)
		return
	}

	if h.dedup != nil && req.BatchID != "" {
		if count, seen := h.dedup.Seen(req.BatchID); seen {
			h.recordBatch(monitoring.BatchDuplicate, 0)
			h.logger.Debug("duplicate batch acknowledged",
				zap.String("batch_id", req.BatchID),
				zap.String("session_id", req.SessionID),
			)
			c.JSON(http.StatusOK, types.IngestResponse{
				Status:          "success",
				ProcessedEvents: count,
			})
			return
		}
	}

	ctx := c.Request.Context()
	processed := 0
	for i, env := range req.Events {
		payload, err := materialize.Decode(env.Data)
		if err == nil {
			err = h.materializer.Record(ctx, payload, env.Timestamp, req.SessionID, req.BrowserInfo)
		}
		if err != nil {
			h.recordBatch(monitoring.BatchFailed, 0)
			h.logger.Error("telemetry batch failed",
				zap.String("session_id", req.SessionID),
				zap.String("batch_id", req.BatchID),
				zap.Int("event_index", i),
				zap.Int("batch_events", len(req.Events)),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process telemetry data"})
			return
		}
		if h.metrics != nil {
			h.metrics.RecordEvent(kindOf(payload))
		}
		processed++
	}

	if h.dedup != nil && req.BatchID != "" {
		h.dedup.Mark(req.BatchID, processed)
	}
	h.recordBatch(monitoring.BatchAccepted, processed)

	c.JSON(http.StatusOK, types.IngestResponse{
		Status:          "success",
		ProcessedEvents: processed,
	})
}

func (h *Handler) reject(c *gin.Context, reason string, err error) {
	h.recordBatch(monitoring.BatchRejected, 0)
	h.logger.Warn("telemetry batch rejected",
		zap.String("reason", reason),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid telemetry data"})
}

func (h *Handler) recordBatch(result string, events int) {
	if h.metrics != nil {
		h.metrics.RecordBatch(result, events)
	}
}

func kindOf(p materialize.Payload) string {
	if _, ok := p.(*materialize.JourneyPayload); ok {
		return monitoring.KindJourney
	}
	return monitoring.KindEvent
}
