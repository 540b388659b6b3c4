// Package logging provides structured logging using uber/zap.
//
// Two modes cover the service's environments:
//   - Production: JSON output with millisecond durations, for the log
//     pipeline
//   - Development: colored console output for human readability
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Error("Batch rejected", zap.Error(err))
package logging
