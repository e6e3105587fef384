package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rf-tools/rtlamr2mqtt/pkg/errors"
)

// NewZapLogger creates a Logger backed by a zap sugared logger.
// Verbosity is one of "debug", "info", "warn", "error".
func NewZapLogger(verbosity string) (Logger, error) {
	level, err := zapcore.ParseLevel(verbosity)
	if err != nil {
		return nil, errors.NewValidationError("invalid verbosity level", err).WithContext("verbosity", verbosity)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableCaller = true
	config.DisableStacktrace = true

	zapLogger, err := config.Build()
	if err != nil {
		return nil, errors.NewInternalError("failed to build zap logger", err)
	}

	sugar := zapLogger.Sugar()
	return NewLogger("", LogFuncs{
		Debugf: sugar.Debugf,
		Infof:  sugar.Infof,
		Warnf:  sugar.Warnf,
		Errorf: sugar.Errorf,
	}), nil
}
