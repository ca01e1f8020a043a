package tracker

import (
	"context"
	"log/slog"

	applog "github.com/cardtrack/cardtrack/internal/log"
)

func loggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	if logger, ok := ctx.Value(applog.LoggerKey).(*slog.Logger); ok {
		return logger
	}
	return nil
}

func logDebug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if logger := loggerFromContext(ctx); logger != nil {
		logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
	}
}

func logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if logger := loggerFromContext(ctx); logger != nil {
		logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
	}
}

func logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if logger := loggerFromContext(ctx); logger != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	}
}
