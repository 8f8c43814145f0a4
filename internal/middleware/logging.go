package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// contextKey is the type of keys stored in a context.Context by this package.
// Using a custom type prevents collisions.
type contextKey string

const loggerKey = contextKey("logger")

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLoggerFromCtx retrieves the command-scoped logger from ctx, falling back
// to the default logger when none was attached.
func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	logger, ok := ctx.Value(loggerKey).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// StartCommand enriches the logger in ctx with a fresh request ID and the
// command name. The returned finish func logs completion with latency and
// the outcome; call it exactly once with the command's final error.
func StartCommand(ctx context.Context, command string, attrs ...any) (context.Context, func(err error)) {
	start := time.Now()
	requestID := uuid.NewString()

	commandLogger := GetLoggerFromCtx(ctx).With(
		slog.String("request_id", requestID),
		slog.String("command", command),
	)
	if len(attrs) > 0 {
		commandLogger = commandLogger.With(attrs...)
	}

	finish := func(err error) {
		latency := time.Since(start)
		if err != nil {
			commandLogger.Warn("Command failed",
				slog.String("error", err.Error()),
				slog.Duration("latency", latency),
			)
			return
		}
		commandLogger.Info("Command completed", slog.Duration("latency", latency))
	}

	return WithLogger(ctx, commandLogger), finish
}
