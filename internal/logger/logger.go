// Package logger builds the zap loggers used by the server and CLI, and
// sanitizes user-controlled values before they are logged.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// serviceName is attached to every production log entry
const serviceName = "proxy-api"

// New returns the console logger for local development and the JSON logger
// everywhere else. debugMode lowers the level to debug, which also enables
// per-request CORS decision logging.
func New(development, debugMode bool) (*zap.Logger, error) {
	if development {
		return NewDevelopmentLogger(debugMode)
	}
	return NewProductionLogger(debugMode)
}

// NewProductionLogger creates a JSON logger writing to stderr
func NewProductionLogger(debugMode bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level(debugMode))
	config.Encoding = "json"
	config.EncoderConfig = productionEncoderConfig()
	config.InitialFields = map[string]interface{}{"service": serviceName}
	// Sampling would drop repeated cross_origin_rejected audit entries
	config.Sampling = nil

	return config.Build()
}

// NewDevelopmentLogger creates a human-readable console logger
func NewDevelopmentLogger(debugMode bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level(debugMode))
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return config.Build()
}

// Sync flushes buffered entries. A nil logger is a no-op.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}

func productionEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func level(debugMode bool) zapcore.Level {
	if debugMode {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
