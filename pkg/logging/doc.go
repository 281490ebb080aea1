// Package logging provides structured logging configuration for faultmock.
//
// This package wraps log/slog so every component logs the same way. It
// supports configurable log levels and output formats, and can tee records
// as JSON into a second writer such as a log file.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "addr", ":8080")
//
// # Integration
//
// Components accept a *slog.Logger through a WithLogger option. If no logger
// is provided they use logging.Nop().
package logging
