package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ic2hrmk/promtail"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/infrastructure/config"
)

type LoggerFactoryImpl struct {
	config *config.LoggingConfig
	client promtail.Client
	stderr io.Writer
	stdout io.Writer

	shutdownOnce sync.Once
}

// NewLoggerFactory creates a factory that logs to Loki when a promtail URL is
// configured and to stderr otherwise. Debug mode mirrors every line to stdout.
func NewLoggerFactory(cfg *config.LoggingConfig) domain.LoggerFactory {
	f := &LoggerFactoryImpl{
		config: cfg,
		stderr: os.Stderr,
		stdout: os.Stdout,
	}
	if cfg == nil {
		f.config = config.DefaultConfig().Logging
	}

	if f.config.Promtail != nil && f.config.Promtail.URL != "" {
		client, err := NewPromtailClient(f.config.Promtail)
		if err != nil {
			// Fall back to console logging
			_, _ = fmt.Fprintf(f.stderr, "Warning: %v, logging to stderr\n", err)
		} else {
			f.client = client
		}
	}
	return f
}

func (f *LoggerFactoryImpl) CreateLogger(component string) domain.Logger {
	var logger domain.Logger
	switch {
	case f.client != nil && f.config.Debug:
		logger = NewTeeLogger(NewPromtailLogger(f.client, component), NewConsoleLogger(f.stdout, component))
	case f.client != nil:
		logger = NewPromtailLogger(f.client, component)
	case f.config.Debug:
		logger = NewConsoleLogger(f.stdout, component)
	default:
		logger = NewConsoleLogger(f.stderr, component)
	}

	level := ParseLogLevel(f.config.Level)
	if f.config.Debug {
		level = domain.LogLevelDebug
	}
	return NewLevelFilterLogger(logger, level)
}

// Shutdown flushes buffered Loki entries. It is safe to call more than once.
func (f *LoggerFactoryImpl) Shutdown() error {
	f.shutdownOnce.Do(func() {
		if f.client != nil {
			f.client.Close()
		}
	})
	return nil
}

// LevelFilterLogger filters log messages based on minimum level
type LevelFilterLogger struct {
	wrapped  domain.Logger
	minLevel domain.LogLevel
}

func NewLevelFilterLogger(wrapped domain.Logger, minLevel domain.LogLevel) *LevelFilterLogger {
	return &LevelFilterLogger{
		wrapped:  wrapped,
		minLevel: minLevel,
	}
}

func (l *LevelFilterLogger) Debug(ctx context.Context, msg string, fields ...domain.Field) {
	if domain.LogLevelDebug >= l.minLevel {
		l.wrapped.Debug(ctx, msg, fields...)
	}
}

func (l *LevelFilterLogger) Info(ctx context.Context, msg string, fields ...domain.Field) {
	if domain.LogLevelInfo >= l.minLevel {
		l.wrapped.Info(ctx, msg, fields...)
	}
}

func (l *LevelFilterLogger) Warn(ctx context.Context, msg string, fields ...domain.Field) {
	if domain.LogLevelWarn >= l.minLevel {
		l.wrapped.Warn(ctx, msg, fields...)
	}
}

func (l *LevelFilterLogger) Error(ctx context.Context, msg string, fields ...domain.Field) {
	if domain.LogLevelError >= l.minLevel {
		l.wrapped.Error(ctx, msg, fields...)
	}
}

func (l *LevelFilterLogger) WithFields(fields ...domain.Field) domain.Logger {
	return &LevelFilterLogger{
		wrapped:  l.wrapped.WithFields(fields...),
		minLevel: l.minLevel,
	}
}

// NoOpLogger is a logger that does nothing
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(ctx context.Context, msg string, fields ...domain.Field) {}
func (n *NoOpLogger) Info(ctx context.Context, msg string, fields ...domain.Field)  {}
func (n *NoOpLogger) Warn(ctx context.Context, msg string, fields ...domain.Field)  {}
func (n *NoOpLogger) Error(ctx context.Context, msg string, fields ...domain.Field) {}
func (n *NoOpLogger) WithFields(fields ...domain.Field) domain.Logger {
	return n
}
