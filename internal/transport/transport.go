package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantboard/telemetry/internal/shared/id"
	"github.com/quantboard/telemetry/internal/shared/types"
)

// QueueItem wraps a finalized journey or a standalone critical event
// while it waits for delivery
type QueueItem struct {
	Data       map[string]interface{}
	Priority   types.Priority
	EnqueuedAt time.Time
}

// Sender delivers batches. HTTPSender is the production implementation.
type Sender interface {
	// Send delivers one batch on the normal asynchronous path.
	Send(ctx context.Context, req types.IngestRequest) error
	// SendFinal makes one guaranteed-effort synchronous attempt during
	// teardown, when a normal round trip may not finish.
	SendFinal(req types.IngestRequest) error
}

// MetadataFunc supplies the session/browser metadata attached to every
// batch at flush time
type MetadataFunc func() types.BrowserInfo

// Config controls batching and flush scheduling
type Config struct {
	SessionID      id.SessionID
	BatchSize      int           // items per batch, default 10
	FlushInterval  time.Duration // periodic flush, default 10s
	FinalSizeLimit int           // teardown payload ceiling in bytes, default 64KB
}

func (c *Config) setDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 10 * time.Second
	}
	if c.FinalSizeLimit <= 0 {
		c.FinalSizeLimit = 64 << 10
	}
}

// Transport batches queued items and delivers them via a Sender
type Transport struct {
	cfg    Config
	sender Sender
	meta   MetadataFunc
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	queue []QueueItem

	flushCh   chan struct{}
	stopCh    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a transport and starts its flush loop
func New(cfg Config, sender Sender, meta MetadataFunc, logger *zap.Logger) *Transport {
	cfg.setDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Transport{
		cfg:     cfg,
		sender:  sender,
		meta:    meta,
		logger:  logger,
		now:     time.Now,
		flushCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go t.run()
	return t
}

// Enqueue adds an item to the outbound queue. Critical items and a full
// queue trigger an immediate flush; everything else waits for the timer.
func (t *Transport) Enqueue(data map[string]interface{}, priority types.Priority) {
	item := QueueItem{
		Data:       data,
		Priority:   priority,
		EnqueuedAt: t.now(),
	}

	t.mu.Lock()
	t.queue = append(t.queue, item)
	depth := len(t.queue)
	t.mu.Unlock()

	if priority == types.PriorityCritical || depth >= t.cfg.BatchSize {
		t.signalFlush()
	}
}

// QueueDepth reports the number of items waiting for delivery
func (t *Transport) QueueDepth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Flush forces one delivery attempt of up to a batch of queued items.
// It reports whether the batch was delivered.
func (t *Transport) Flush(ctx context.Context) bool {
	batch := t.takeBatch()
	if len(batch) == 0 {
		return true
	}

	req := t.buildRequest(batch)
	if err := t.sender.Send(ctx, req); err != nil {
		t.logger.Warn("batch delivery failed, re-queueing",
			zap.String("batch_id", req.BatchID),
			zap.Int("items", len(batch)),
			zap.Error(err),
		)
		t.requeueHead(batch)
		return false
	}

	t.logger.Debug("batch delivered",
		zap.String("batch_id", req.BatchID),
		zap.Int("items", len(batch)),
	)
	return true
}

// Close stops the flush loop and makes a final guaranteed-effort send of
// whatever remains, truncated to the teardown payload ceiling
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		close(t.stopCh)
		<-t.done
		t.finalFlush()
	})
}

func (t *Transport) run() {
	defer close(t.done)
	ticker := time.NewTicker(t.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.flushCh:
			t.flushAndRearm()
		case <-ticker.C:
			t.flushAndRearm()
		case <-t.stopCh:
			return
		}
	}
}

// flushAndRearm flushes once and re-signals while a full batch is still
// queued. Size-threshold signals raised during an in-flight send coalesce
// into the single flushCh slot, so without the re-arm a burst would strand
// the excess until the next timer tick. After a failed send the queue is
// already bounded to one batch and the timer paces the retry.
func (t *Transport) flushAndRearm() {
	if t.Flush(context.Background()) && t.QueueDepth() >= t.cfg.BatchSize {
		t.signalFlush()
	}
}

func (t *Transport) signalFlush() {
	select {
	case t.flushCh <- struct{}{}:
	default:
		// A flush is already pending; it will see the new item.
	}
}

// takeBatch removes up to one batch of items from the head of the queue
func (t *Transport) takeBatch() []QueueItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.queue)
	if n == 0 {
		return nil
	}
	if n > t.cfg.BatchSize {
		n = t.cfg.BatchSize
	}

	batch := make([]QueueItem, n)
	copy(batch, t.queue[:n])
	t.queue = append(t.queue[:0], t.queue[n:]...)
	return batch
}

// requeueHead puts a failed batch back at the head of the queue, bounded
// to one batch of total outstanding items. The oldest items fall off
// first when over the bound.
func (t *Transport) requeueHead(batch []QueueItem) {
	t.mu.Lock()
	defer t.mu.Unlock()

	combined := make([]QueueItem, 0, len(batch)+len(t.queue))
	combined = append(combined, batch...)
	combined = append(combined, t.queue...)

	if dropped := len(combined) - t.cfg.BatchSize; dropped > 0 {
		combined = combined[dropped:]
		t.logger.Warn("outbound queue over bound, dropping oldest items",
			zap.Int("dropped", dropped),
		)
	}
	t.queue = combined
}

func (t *Transport) buildRequest(batch []QueueItem) types.IngestRequest {
	events := make([]types.EventEnvelope, 0, len(batch))
	for _, item := range batch {
		events = append(events, types.EventEnvelope{
			Data:      item.Data,
			Priority:  item.Priority,
			Timestamp: item.EnqueuedAt.UnixMilli(),
		})
	}

	var info types.BrowserInfo
	if t.meta != nil {
		info = t.meta()
	}

	return types.IngestRequest{
		SessionID:   t.cfg.SessionID.String(),
		BatchID:     id.NewBatchID().String(),
		Events:      events,
		BrowserInfo: info,
	}
}

// finalFlush sends everything still queued in one synchronous attempt,
// dropping items from the tail until the payload fits the size ceiling
func (t *Transport) finalFlush() {
	t.mu.Lock()
	remaining := t.queue
	t.queue = nil
	t.mu.Unlock()

	if len(remaining) == 0 {
		return
	}

	req := t.buildRequest(remaining)
	for len(req.Events) > 0 {
		body, err := json.Marshal(req)
		if err != nil {
			t.logger.Warn("final payload marshal failed", zap.Error(err))
			return
		}
		if len(body) <= t.cfg.FinalSizeLimit {
			break
		}
		req.Events = req.Events[:len(req.Events)-1]
	}
	if len(req.Events) < len(remaining) {
		t.logger.Warn("final payload truncated",
			zap.Int("kept", len(req.Events)),
			zap.Int("queued", len(remaining)),
		)
	}
	if len(req.Events) == 0 {
		return
	}

	if err := t.sender.SendFinal(req); err != nil {
		// Best effort: the page context is going away either way.
		t.logger.Warn("final delivery failed", zap.Error(err))
	}
}
