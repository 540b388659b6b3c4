// Package types provides shared data structures for the telemetry pipeline.
//
// This package defines the wire format exchanged between the browser
// transport and the ingestion endpoint, so both sides of the pipeline
// agree on one batch shape.
//
// Core Types:
//   - EventEnvelope: One queued telemetry item with priority and timestamp
//   - IngestRequest, IngestResponse: The /telemetry/browser contract
//   - BrowserInfo: Batch-level client context
//   - Priority: Normal vs critical event delivery class
package types
