package ingest

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Deduper remembers recently processed batch ids so redelivered batches
// are acknowledged without materializing their spans twice. Retried and
// concurrent flushes make at-least-once delivery the norm, not the
// exception.
type Deduper struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewDeduper creates a dedup cache holding batch ids for the given window
func NewDeduper(ttl time.Duration) (*Deduper, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     10_000, // batch ids, cost 1 each
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Deduper{cache: cache, ttl: ttl}, nil
}

// Seen reports whether a batch id was already processed and with how
// many events
func (d *Deduper) Seen(batchID string) (int, bool) {
	v, ok := d.cache.Get(batchID)
	if !ok {
		return 0, false
	}
	count, ok := v.(int)
	return count, ok
}

// Mark records a processed batch id and its event count
func (d *Deduper) Mark(batchID string, processed int) {
	d.cache.SetWithTTL(batchID, processed, 1, d.ttl)
	// Make the entry visible before the response goes out; ristretto
	// writes are buffered by default.
	d.cache.Wait()
}

// Close releases the cache
func (d *Deduper) Close() {
	d.cache.Close()
}
