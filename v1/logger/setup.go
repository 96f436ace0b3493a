package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.Logger behind the Info/Debug/Warn/Error methods every
// polystore package logs through.
type Logger struct {
	// Zap is the underlying logger, exposed for zap-specific needs such as
	// Sync.
	Zap *zap.Logger

	// tracingEnabled makes the *WithContext methods add trace and span IDs.
	tracingEnabled bool
}

// NewLoggerClient builds a Logger from cfg.
//
// Entries carry an ISO8601 "timestamp", the caller, the process ID and the
// service name. Encoding defaults to JSON and output to stderr. An invalid
// output path is fatal.
//
// Example:
//
//	log := logger.NewLoggerClient(logger.Config{
//	    Level:       logger.Info,
//	    ServiceName: "polystore",
//	})
//	log.Info("attached database", nil, map[string]interface{}{"alias": "people"})
func NewLoggerClient(cfg Config) *Logger {
	zl, err := zapConfig(cfg).Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal(err)
	}
	return &Logger{
		Zap:            zl,
		tracingEnabled: cfg.EnableTracing,
	}
}

func zapConfig(cfg Config) zap.Config {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.FullCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	encoding := cfg.Encoding
	if encoding != ConsoleEncoding {
		encoding = JSONEncoding
	}
	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}
}

// parseLevel maps a Config level onto zap; unknown levels log at info.
func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	}
	return zap.InfoLevel
}

// Nop returns a logger that discards everything. It is the default for
// components constructed without a logger.
func Nop() *Logger {
	return &Logger{Zap: zap.NewNop()}
}
