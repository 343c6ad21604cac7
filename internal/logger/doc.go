// Package logger provides a simple, thread-safe logging facility.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each log entry includes a timestamp, level, optional scope (the name of
// the component writing it), and message.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Stress run started")
//	logger.Info("client", "Issued %d requests", n)
//	logger.Error("audit", "Invariant violated: %v", err)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("treemap", "Debug message")
//
// # Log Levels
//
// Messages below the configured level are filtered. ParseLevel turns the
// names used in scenario files and flags ("debug", "info", ...) into a Level:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// # Thread Safety
//
// All logging operations are protected by a mutex and safe for concurrent use.
package logger
