package adapters

import (
	"context"

	"github.com/winstow/winstow/internal/domain"
)

// NoopLogger discards everything logged to it. Used by library callers
// that don't want winstow's log output.
type NoopLogger struct{}

// NewNoopLogger creates a no-op logger.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (l *NoopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (l *NoopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (l *NoopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (l *NoopLogger) Error(ctx context.Context, msg string, args ...any) {}

func (l *NoopLogger) With(args ...any) domain.Logger {
	return l
}
