package loom

import "go.uber.org/zap"

// Logger is the narrow logging surface loom needs; *zap.Logger
// satisfies it directly.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
}

var logger Logger = zap.NewNop()

func logDebug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

func logError(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}
