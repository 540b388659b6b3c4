package ws

import (
	"sync"

	"github.com/quantboard/telemetry/internal/materialize"
)

const subscriberBuffer = 64

// Feed broadcasts materialized span summaries to live subscribers.
// Publishing never blocks; a subscriber that falls behind loses
// summaries rather than stalling ingestion.
type Feed struct {
	mu     sync.Mutex
	subs   map[chan materialize.SpanSummary]struct{}
	closed bool
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{subs: make(map[chan materialize.SpanSummary]struct{})}
}

// Publish fans a summary out to every subscriber
func (f *Feed) Publish(summary materialize.SpanSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for ch := range f.subs {
		select {
		case ch <- summary:
		default:
			// Slow consumer, drop the summary for this subscriber.
		}
	}
}

// Subscribe registers a new consumer. The returned cancel func must be
// called when the consumer goes away.
func (f *Feed) Subscribe() (<-chan materialize.SpanSummary, func()) {
	ch := make(chan materialize.SpanSummary, subscriberBuffer)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			if _, ok := f.subs[ch]; ok {
				delete(f.subs, ch)
				close(ch)
			}
			f.mu.Unlock()
		})
	}
	return ch, cancel
}

// SubscriberCount reports how many consumers are attached
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close detaches all subscribers and rejects new ones
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for ch := range f.subs {
		delete(f.subs, ch)
		close(ch)
	}
}
