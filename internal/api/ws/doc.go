// Package ws streams materialized span summaries to debug consumers.
//
// Every span the ingestion pipeline materializes is published to a Feed,
// and each WebSocket connection subscribes to it. Slow consumers drop
// summaries instead of backpressuring ingestion.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection established
//   - span: One materialized span summary
//   - pong: Keep-alive reply
//   - error: Unknown client message
//
// Example Usage:
//
//	feed := ws.NewFeed()
//	handler := ws.NewHandler(feed, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
