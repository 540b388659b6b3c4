/*
Package transport owns the outbound telemetry queue and its delivery.

# Overview

Finalized journeys and standalone critical events are enqueued as
QueueItems in a single FIFO. Four triggers cause a flush, in order of
precedence:

 1. a critical-priority item is enqueued: flush immediately
 2. the queue reaches the batch size
 3. the periodic timer fires (default 10s)
 4. teardown: Close flushes whatever remains

Normal flushes POST up to one batch of items plus session metadata
through a retrying HTTP client behind a circuit breaker. A failed batch
is re-queued at the head, bounded to the batch size; the oldest items
are silently dropped beyond that bound. Telemetry loss under sustained
failure is accepted.

The teardown flush uses a single synchronous attempt with a bounded
payload, mirroring the browser beacon primitive: the surrounding
context may be destroyed before a normal round trip completes, so the
payload is truncated to fit one guaranteed-attempt send.

Every batch carries a fresh batch id as an idempotency key; the server
drops redelivered batches, so retries cannot double-count.

# Ordering

Items within one batch preserve enqueue order. No ordering guarantee
holds across batches.
*/
package transport
