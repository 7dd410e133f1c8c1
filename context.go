package reckon

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
)

type ctxLoggerKey struct{}

var defaultLogger = slog.New(slog.DiscardHandler)

// ctxWithLogger attaches the logger both for LoggerFromContext and for ctxlog scopes used by the engines.
func ctxWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	ctx = ctxlog.With(ctx, logger)
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// LoggerFromContext returns the logger attached by Run, or a discard logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return defaultLogger
}
