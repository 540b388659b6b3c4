package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quantboard/telemetry/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

const writeTimeout = 5 * time.Second

// Handler streams materialized span summaries over WebSocket
type Handler struct {
	feed    *Feed
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler around the span feed
func NewHandler(feed *Feed, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{feed: feed, metrics: metrics, logger: logger}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.StreamConnections.Inc()
		defer h.metrics.StreamConnections.Dec()
	}

	summaries, cancel := h.feed.Subscribe()
	defer cancel()

	// Subscribe before the welcome goes out so a client that sees the
	// welcome is guaranteed to receive spans published after it.
	h.send(conn, map[string]interface{}{
		"type":    "system",
		"message": "Connected to telemetry span feed",
	})

	// Writer goroutine owns all writes after the welcome message; the
	// read loop signals it through outbound.
	outbound := make(chan interface{}, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case summary, ok := <-summaries:
				if !ok {
					return
				}
				if h.send(conn, map[string]interface{}{
					"type":      "span",
					"span":      summary,
					"timestamp": time.Now().Unix(),
				}) != nil {
					return
				}
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				if h.send(conn, msg) != nil {
					return
				}
			}
		}
	}()

	// Listen for messages
readLoop:
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			break
		}

		var reply interface{}
		switch msg.Type {
		case "ping":
			reply = map[string]interface{}{"type": "pong"}
		default:
			reply = map[string]interface{}{
				"type":      "error",
				"message":   "unknown message type",
				"timestamp": time.Now().Unix(),
			}
		}

		// The writer can exit first, on feed shutdown or a write error;
		// don't block on its buffer once it is gone.
		select {
		case outbound <- reply:
		case <-writerDone:
			break readLoop
		}
	}

	cancel()
	close(outbound)
	<-writerDone
}

type clientMessage struct {
	Type string `json:"type"`
}

func (h *Handler) send(conn *websocket.Conn, data interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(data)
}
