/*
Package ingest accepts batches of client-reported telemetry.

The endpoint validates the batch shape (a session id and an array of
events are required), decodes each event's data object into its tagged
variant at the boundary, and dispatches every event to the
materializer. The whole batch shares one failure boundary: a single
event the materializer cannot process fails the batch with a 500 and
the client's retry redelivers it. Redelivered batches are recognized by
their idempotency key and answered from the dedup cache instead of
being materialized twice.
*/
package ingest
