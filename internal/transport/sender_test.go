package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/quantboard/telemetry/internal/shared/types"
)

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewHTTPSender(server.URL)
	err := s.Send(context.Background(), types.IngestRequest{SessionID: "sess_retry"})
	if err != nil {
		t.Fatalf("Send should succeed once the endpoint recovers: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("endpoint saw %d requests, want 3 (two retries)", got)
	}
}

func TestSendReportsExhaustedRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewHTTPSender(server.URL)
	if err := s.Send(context.Background(), types.IngestRequest{SessionID: "sess_down"}); err == nil {
		t.Fatal("Send should fail after retries are exhausted")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("endpoint saw %d requests, want 3 (initial + two retries)", got)
	}
}

func TestSendFinalNeverRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := NewHTTPSender(server.URL)
	if err := s.SendFinal(types.IngestRequest{SessionID: "sess_final"}); err == nil {
		t.Fatal("SendFinal should surface the server error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("teardown send made %d attempts, want exactly 1", got)
	}
}
