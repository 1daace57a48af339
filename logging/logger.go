package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variable names controlling logger behavior.
const (
	EnvDevMode  = "DEV_MODE"
	EnvLogLevel = "LOG_LEVEL"
)

// New builds the service logger. DEV_MODE=true switches to the development
// encoder (human-readable console output); LOG_LEVEL overrides the default
// level (info in production, debug in development).
func New() (*zap.Logger, error) {
	dev := os.Getenv(EnvDevMode) == "true"

	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		parsed, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	return cfg.Build()
}
