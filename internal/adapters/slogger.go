package adapters

import (
	"context"
	"io"
	"log/slog"
	"strings"

	console "github.com/phsym/console-slog"

	"github.com/winstow/winstow/internal/domain"
)

// SlogLogger implements domain.Logger on top of log/slog.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps an existing *slog.Logger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// NewConsoleLogger creates a human-readable logger using console-slog.
func NewConsoleLogger(w io.Writer, level string) *SlogLogger {
	handler := console.NewHandler(w, &console.HandlerOptions{
		Level: ParseLogLevel(level),
	})
	return &SlogLogger{logger: slog.New(handler)}
}

// NewJSONLogger creates a machine-readable logger for --log-json.
func NewJSONLogger(w io.Writer, level string) *SlogLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLogLevel(level),
	})
	return &SlogLogger{logger: slog.New(handler)}
}

func (l *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *SlogLogger) With(args ...any) domain.Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// ParseLogLevel maps -v counts (translated to a name by the caller) or a
// config string to a slog.Level. Unrecognized input defaults to Info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
