// Package main is the entry point for the browser telemetry server.
//
// The server receives batched journeys and events from browser clients,
// materializes them into backend spans, and exports them over OTLP.
//
// Architecture:
//
//	Browser (journey tracer) → POST /telemetry/browser → Span export (OTLP)
//	                                                   → Live feed (WebSocket)
//
// The server provides:
//   - Batched telemetry ingestion with idempotent redelivery
//   - Span materialization with performance scoring
//   - Correlation header extraction on API routes
//   - WebSocket streaming of materialized spans
//   - Prometheus metrics, rate limiting
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
