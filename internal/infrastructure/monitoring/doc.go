// Package monitoring provides Prometheus metrics for the ingestion service.
//
// Metrics cover the HTTP surface (request counts, latencies, sizes) and
// the telemetry pipeline itself: batches accepted, rejected, failed, and
// deduplicated, events processed by kind, and live stream connections.
//
// Each Metrics value owns its own registry, so tests can create as many
// instances as they need without collisions.
package monitoring
