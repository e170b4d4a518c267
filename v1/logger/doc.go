// Package logger provides structured logging on top of go.uber.org/zap.
//
// Every component of the module logs through the same small set of methods:
//
//	Info(msg string, err error, fields ...map[string]interface{})
//
// with Debug, Warn, Error and Fatal alongside. Packages that log declare a
// local interface with the methods they need, so *Logger can be passed to
// them without an import cycle and tests can pass a mock.
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "indexer",
//		EnableTracing: true,
//	})
//
//	log.Info("Collection loaded", nil, map[string]interface{}{
//		"collection": "docs",
//		"documents":  1200,
//	})
//
//	// Adds trace_id and span_id of the span in ctx
//	log.InfoWithContext(ctx, "Search done", nil, map[string]interface{}{
//		"results": 5,
//	})
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: "info", ServiceName: "my-service"}
//		}),
//	)
//
// FXModule provides *Logger and syncs it on stop.
//
// # Output
//
// Entries are JSON on stderr with an ISO8601 "timestamp", upper case
// "level", the caller, and "pid" and "service" fields.
//
// # Configuration
//
//	LOGGER_LEVEL=debug              # debug, info, warning, error
//	LOGGER_SERVICE_NAME=indexer
//	LOGGER_ENABLE_TRACING=true      # trace ids in *WithContext methods
//
// # Tests
//
// NewWithZap wraps any zap logger; combined with zaptest/observer it lets
// tests assert on log entries.
package logger
