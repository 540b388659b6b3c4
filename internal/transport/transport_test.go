package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/quantboard/telemetry/internal/shared/id"
	"github.com/quantboard/telemetry/internal/shared/types"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []types.IngestRequest
	finals []types.IngestRequest
	fail   bool
}

func (f *fakeSender) Send(_ context.Context, req types.IngestRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("network down")
	}
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeSender) SendFinal(req types.IngestRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finals = append(f.finals, req)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeSender) sentAt(i int) types.IngestRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[i]
}

func (f *fakeSender) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func newTestTransport(sender Sender, batchSize int) *Transport {
	return New(Config{
		SessionID:     id.NewSessionID(),
		BatchSize:     batchSize,
		FlushInterval: time.Hour, // keep the timer out of the way
	}, sender, func() types.BrowserInfo {
		return types.BrowserInfo{UserAgent: "test-agent", URL: "https://dash.example.com"}
	}, nil)
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func item(name string) map[string]interface{} {
	return map[string]interface{}{"name": name}
}

func TestCriticalEnqueueFlushesImmediately(t *testing.T) {
	sender := &fakeSender{}
	tr := newTestTransport(sender, 10)
	defer tr.Close()

	tr.Enqueue(item("order_submitted"), types.PriorityCritical)

	eventually(t, func() bool { return sender.sentCount() == 1 },
		"critical item should flush without waiting for the timer")

	req := sender.sentAt(0)
	if len(req.Events) != 1 || req.Events[0].Priority != types.PriorityCritical {
		t.Errorf("unexpected batch contents: %+v", req.Events)
	}
}

func TestBatchSizeTriggersFlush(t *testing.T) {
	sender := &fakeSender{}
	tr := newTestTransport(sender, 3)
	defer tr.Close()

	tr.Enqueue(item("a"), types.PriorityNormal)
	tr.Enqueue(item("b"), types.PriorityNormal)
	time.Sleep(20 * time.Millisecond)
	if sender.sentCount() != 0 {
		t.Error("flush should not fire below the batch size")
	}
	tr.Enqueue(item("c"), types.PriorityNormal)

	eventually(t, func() bool { return sender.sentCount() == 1 },
		"reaching the batch size should trigger a flush")

	if got := len(sender.sentAt(0).Events); got != 3 {
		t.Errorf("expected a full batch of 3, got %d", got)
	}
}

type gatedSender struct {
	fakeSender
	started chan struct{}
	gate    chan struct{}
}

func (g *gatedSender) Send(ctx context.Context, req types.IngestRequest) error {
	g.started <- struct{}{}
	<-g.gate
	return g.fakeSender.Send(ctx, req)
}

func TestBurstDuringInFlightSendStillDrains(t *testing.T) {
	sender := &gatedSender{
		started: make(chan struct{}, 8),
		gate:    make(chan struct{}),
	}
	tr := newTestTransport(sender, 4)
	defer tr.Close()

	for i := 0; i < 4; i++ {
		tr.Enqueue(item(fmt.Sprintf("e%d", i)), types.PriorityNormal)
	}
	<-sender.started // first batch is in flight

	// Size-threshold signals raised now coalesce while the send blocks.
	for i := 4; i < 12; i++ {
		tr.Enqueue(item(fmt.Sprintf("e%d", i)), types.PriorityNormal)
	}

	close(sender.gate)

	// The loop must keep flushing on its own; the timer is an hour away.
	eventually(t, func() bool { return sender.sentCount() == 3 && tr.QueueDepth() == 0 },
		"queue should drain below the batch size without a timer tick")
}

func TestFlushPreservesEnqueueOrder(t *testing.T) {
	sender := &fakeSender{}
	tr := New(Config{SessionID: id.NewSessionID(), BatchSize: 5, FlushInterval: time.Hour}, sender, nil, nil)
	defer tr.Close()

	for i := 0; i < 4; i++ {
		tr.Enqueue(item(fmt.Sprintf("e%d", i)), types.PriorityNormal)
	}
	tr.Flush(context.Background())

	req := sender.sentAt(0)
	for i, env := range req.Events {
		if want := fmt.Sprintf("e%d", i); env.Data["name"] != want {
			t.Errorf("event %d out of order: got %v, want %s", i, env.Data["name"], want)
		}
	}
}

func TestFailedBatchRequeuedAtHead(t *testing.T) {
	sender := &fakeSender{fail: true}
	tr := New(Config{SessionID: id.NewSessionID(), BatchSize: 5, FlushInterval: time.Hour}, sender, nil, nil)
	defer tr.Close()

	tr.Enqueue(item("first"), types.PriorityNormal)
	tr.Enqueue(item("second"), types.PriorityNormal)
	tr.Flush(context.Background())

	if tr.QueueDepth() != 2 {
		t.Fatalf("failed batch should be re-queued, depth %d", tr.QueueDepth())
	}

	sender.setFail(false)
	tr.Flush(context.Background())

	req := sender.sentAt(0)
	if req.Events[0].Data["name"] != "first" {
		t.Errorf("re-queued batch should keep head position, got %v", req.Events[0].Data["name"])
	}
}

func TestQueueBoundedAfterFlushDecision(t *testing.T) {
	sender := &fakeSender{fail: true}
	tr := New(Config{SessionID: id.NewSessionID(), BatchSize: 4, FlushInterval: time.Hour}, sender, nil, nil)
	defer tr.Close()

	// Sustained failure: every flush re-queues, new items keep arriving.
	for i := 0; i < 20; i++ {
		tr.Enqueue(item(fmt.Sprintf("e%d", i)), types.PriorityNormal)
		tr.Flush(context.Background())
		if depth := tr.QueueDepth(); depth > 4 {
			t.Fatalf("queue depth %d exceeds batch size after flush decision", depth)
		}
	}
}

func TestRequeueDropsOldestBeyondBound(t *testing.T) {
	sender := &fakeSender{fail: true}
	tr := New(Config{SessionID: id.NewSessionID(), BatchSize: 3, FlushInterval: time.Hour}, sender, nil, nil)
	defer tr.Close()

	for i := 0; i < 3; i++ {
		tr.Enqueue(item(fmt.Sprintf("old%d", i)), types.PriorityNormal)
	}
	tr.Flush(context.Background()) // fails, re-queued

	tr.Enqueue(item("new"), types.PriorityNormal)
	tr.Flush(context.Background()) // fails again; bound drops the oldest

	sender.setFail(false)
	tr.Flush(context.Background())

	req := sender.sentAt(0)
	if len(req.Events) != 3 {
		t.Fatalf("expected bounded batch of 3, got %d", len(req.Events))
	}
	if req.Events[0].Data["name"] == "old0" {
		t.Error("oldest item should have been dropped over the bound")
	}
	last := req.Events[len(req.Events)-1]
	if last.Data["name"] != "new" {
		t.Errorf("newest item should survive, got %v", last.Data["name"])
	}
}

func TestBatchCarriesIdempotencyKey(t *testing.T) {
	sender := &fakeSender{}
	tr := New(Config{SessionID: id.NewSessionID(), BatchSize: 5, FlushInterval: time.Hour}, sender, nil, nil)
	defer tr.Close()

	tr.Enqueue(item("a"), types.PriorityNormal)
	tr.Flush(context.Background())
	tr.Enqueue(item("b"), types.PriorityNormal)
	tr.Flush(context.Background())

	first, second := sender.sentAt(0), sender.sentAt(1)
	if first.BatchID == "" || second.BatchID == "" {
		t.Fatal("every batch needs an idempotency key")
	}
	if first.BatchID == second.BatchID {
		t.Error("batch ids must be unique per attempt")
	}
}

func TestCloseFlushesRemainder(t *testing.T) {
	sender := &fakeSender{}
	tr := newTestTransport(sender, 10)

	tr.Enqueue(item("leftover"), types.PriorityNormal)
	tr.Close()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.finals) != 1 {
		t.Fatalf("teardown should use the final send path, got %d finals", len(sender.finals))
	}
	if len(sender.finals[0].Events) != 1 {
		t.Errorf("final send should carry the remaining items")
	}
}

func TestFinalFlushTruncatesToSizeCeiling(t *testing.T) {
	sender := &fakeSender{}
	tr := New(Config{
		SessionID:      id.NewSessionID(),
		BatchSize:      100,
		FlushInterval:  time.Hour,
		FinalSizeLimit: 600,
	}, sender, nil, nil)

	big := make([]byte, 200)
	for i := range big {
		big[i] = 'x'
	}
	for i := 0; i < 10; i++ {
		tr.Enqueue(map[string]interface{}{"name": "e", "blob": string(big)}, types.PriorityNormal)
	}
	tr.Close()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.finals) != 1 {
		t.Fatalf("expected one final send, got %d", len(sender.finals))
	}
	kept := len(sender.finals[0].Events)
	if kept == 0 || kept >= 10 {
		t.Errorf("final payload should be truncated but not empty, kept %d", kept)
	}
}

func TestCloseIdempotent(t *testing.T) {
	sender := &fakeSender{}
	tr := newTestTransport(sender, 10)
	tr.Close()
	tr.Close() // must not panic or double-send
}
