package integration

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantboard/telemetry/internal/infrastructure/config"
	"github.com/quantboard/telemetry/internal/infrastructure/server"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Tracing.Enabled = false // no collector in tests
	cfg.RateLimit.Enabled = false

	srv, err := server.NewServer(cfg)
	require.NoError(t, err, "Failed to create server")
	t.Cleanup(func() { _ = srv.Close() })

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postBatch(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/telemetry/browser", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func viewPortfolioBatch(batchID string) string {
	return fmt.Sprintf(`{
		"session_id": "sess_01HTEST",
		"batch_id": %q,
		"events": [
			{
				"data": {
					"journey_name": "view_portfolio",
					"trace_id": "trace_01HTEST",
					"span_id": "span_01HTEST",
					"start_time": 1700000000000,
					"end_time": 1700000001500,
					"duration": 1500,
					"attributes": {
						"journey.status": "completed",
						"lcp": 2000,
						"fid": 80,
						"cls": 0.05
					}
				},
				"priority": "normal",
				"timestamp": 1700000001500
			}
		],
		"browser_info": {
			"user_agent": "integration-test",
			"url": "https://app.example.com/portfolio",
			"market_session": "market_hours",
			"timestamp": 1700000001500
		}
	}`, batchID)
}

func TestTelemetryPipeline(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Status Endpoints", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"healthy"`)
	})

	t.Run("Journey Batch Accepted", func(t *testing.T) {
		resp := postBatch(t, ts, viewPortfolioBatch("batch_accept"))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"success","processed_events":1}`, string(body))
	})

	t.Run("Duplicate Batch Acknowledged Once", func(t *testing.T) {
		first := postBatch(t, ts, viewPortfolioBatch("batch_dup"))
		assert.Equal(t, http.StatusOK, first.StatusCode)

		second := postBatch(t, ts, viewPortfolioBatch("batch_dup"))
		assert.Equal(t, http.StatusOK, second.StatusCode)
		body, err := io.ReadAll(second.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"success","processed_events":1}`, string(body))
	})

	t.Run("Malformed Batch Rejected", func(t *testing.T) {
		resp := postBatch(t, ts, `{"events": []}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"Invalid telemetry data"}`, string(body))
	})

	t.Run("Unrecognized Payload Fails Batch", func(t *testing.T) {
		resp := postBatch(t, ts, `{
			"session_id": "sess_01HTEST",
			"events": [{"data": {"unexpected": true}, "priority": "normal", "timestamp": 1}],
			"browser_info": {}
		}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("Prometheus Metrics Exposed", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "telemetry_batches_total")
	})
}

func TestSpanFeedStreamsScoredJourney(t *testing.T) {
	ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "Failed to dial span feed")
	defer conn.Close()

	// Welcome message arrives first.
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var welcome map[string]interface{}
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, "system", welcome["type"])

	// The welcome is sent after the subscription registers, so a batch
	// posted now is guaranteed to reach this connection.
	resp := postBatch(t, ts, viewPortfolioBatch("batch_stream"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var spanMsg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&spanMsg))
	require.Equal(t, "span", spanMsg["type"])

	span, ok := spanMsg["span"].(map[string]interface{})
	require.True(t, ok, "span payload missing")
	assert.Equal(t, "browser.journey.view_portfolio", span["name"])
	assert.Equal(t, float64(1500), span["duration_ms"])
	assert.Equal(t, float64(100), span["performance_score"], "healthy vitals must score 100")
}
