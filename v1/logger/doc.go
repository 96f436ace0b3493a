// Package logger provides structured logging backed by Uber's zap.
//
// Every polystore component logs through store.Logger, whose method set is
// Info/Debug/Warn/Error(msg, err, fields...) plus the context-aware
// InfoWithContext, DebugWithContext, WarnWithContext and ErrorWithContext.
// *Logger satisfies it. Components constructed without a logger discard
// their output; Nop returns a *Logger that does the same.
//
// The err argument is attached as the "error" field when non-nil, and every
// map in fields is flattened into the entry:
//
//	log.Error("failed to insert", err, map[string]interface{}{
//		"collection": "Person",
//		"count":      12,
//	})
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:       logger.Info,
//		Encoding:    logger.ConsoleEncoding,
//		ServiceName: "polystore",
//	})
//	defer log.Zap.Sync()
//
//	log.Info("attached database", nil, map[string]interface{}{
//		"alias":  "people",
//		"handle": "sqlite:///data/people.db",
//	})
//
//	c := client.New(client.WithLogger(log))
//
// Fatal logs and exits the process; it is meant for command entry points,
// never for library code.
//
// # FX Module Integration
//
// FXModule provides *Logger from a logger.Config and flushes buffered
// entries on shutdown:
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: "info", ServiceName: "polystore"}
//		}),
//	)
//
// # Tracing Integration
//
// With EnableTracing set, the *WithContext methods add the OpenTelemetry
// trace_id and span_id of the span carried by the context:
//
//	log.InfoWithContext(ctx, "query executed", nil, map[string]interface{}{"rows": 3})
//
// Adapters log connection events and collection lifecycle through these
// methods, so with a tracer attached their lines join the operation spans.
// Without EnableTracing they behave like their plain counterparts.
//
// # Configuration
//
//	level:          debug, info (default), warning or error
//	encoding:       json (default) or console
//	output_paths:   zap sinks such as stdout or /var/log/polystore.log; stderr when empty
//	enable_tracing: add trace and span IDs to *WithContext entries
//	service_name:   value of the "service" field on every entry
//
// The level can also be set from the environment:
//
//	ZAP_LOGGER_LEVEL=debug
//
// # Thread Safety
//
// All methods are safe for concurrent use.
package logger
