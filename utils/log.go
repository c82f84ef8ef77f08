package utils

import (
	"context"

	"go.uber.org/zap"
)

type logKeyType struct{}

// LogContext appends fields to the ones already carried by ctx
func LogContext(ctx context.Context, fields ...zap.Field) context.Context {
	old := GetLogContextFields(ctx)
	merged := make([]zap.Field, 0, len(old)+len(fields))
	merged = append(merged, old...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, logKeyType{}, merged)
}

func GetLogContextFields(ctx context.Context) []zap.Field {
	fields, ok := ctx.Value(logKeyType{}).([]zap.Field)
	if !ok {
		return nil
	}
	return fields
}

func GetLogFromContext(ctx context.Context, parentLog *zap.Logger) *zap.Logger {
	return parentLog.With(GetLogContextFields(ctx)...)
}

func LogContextWith(ctx context.Context, parentLog *zap.Logger, fields ...zap.Field) (context.Context, *zap.Logger) {
	ctx = LogContext(ctx, fields...)
	parentLog = parentLog.With(fields...)
	return ctx, parentLog
}
