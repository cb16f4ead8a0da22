package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName identifies this process in logs and traces
const ServiceName = "pos-service"

var logger *zap.Logger

// InitLogger initializes the global logger. Production uses JSON output,
// every other environment a coloured console.
func InitLogger(env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.InitialFields = map[string]interface{}{"service": ServiceName}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = l
	zap.ReplaceGlobals(logger)
	return nil
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SetLogger replaces the global logger, mainly for tests
func SetLogger(l *zap.Logger) {
	logger = l
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
