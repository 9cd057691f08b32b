package rabitq

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with codec-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithBits adds a bits field to the logger.
func (l *Logger) WithBits(bits int) *Logger {
	return &Logger{
		Logger: l.Logger.With("bits", bits),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// LogEncode logs a single encode.
func (l *Logger) LogEncode(ctx context.Context, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "encode failed",
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "encode completed",
			"dimension", dimension,
		)
	}
}

// LogBatchEncode logs a batch encode.
func (l *Logger) LogBatchEncode(ctx context.Context, count int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch encode failed",
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch encode completed",
			"count", count,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogSave logs a codec save.
func (l *Logger) LogSave(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "codec save failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "codec saved",
			"name", name,
			"bytes", size,
		)
	}
}

// LogLoad logs a codec load.
func (l *Logger) LogLoad(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "codec load failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "codec loaded",
			"name", name,
			"bytes", size,
		)
	}
}
