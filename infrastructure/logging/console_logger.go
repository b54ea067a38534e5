package logging

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ca-srg/saferestart/domain"
)

// ConsoleLogger writes one human-readable line per entry to an io.Writer.
type ConsoleLogger struct {
	out       io.Writer
	mu        *sync.Mutex
	component string
	fields    []domain.Field
	now       func() time.Time
}

func NewConsoleLogger(out io.Writer, component string) *ConsoleLogger {
	return &ConsoleLogger{
		out:       out,
		mu:        &sync.Mutex{},
		component: component,
		now:       time.Now,
	}
}

func (c *ConsoleLogger) Debug(ctx context.Context, msg string, fields ...domain.Field) {
	c.write(domain.LogLevelDebug, msg, fields)
}

func (c *ConsoleLogger) Info(ctx context.Context, msg string, fields ...domain.Field) {
	c.write(domain.LogLevelInfo, msg, fields)
}

func (c *ConsoleLogger) Warn(ctx context.Context, msg string, fields ...domain.Field) {
	c.write(domain.LogLevelWarn, msg, fields)
}

func (c *ConsoleLogger) Error(ctx context.Context, msg string, fields ...domain.Field) {
	c.write(domain.LogLevelError, msg, fields)
}

func (c *ConsoleLogger) WithFields(fields ...domain.Field) domain.Logger {
	newFields := make([]domain.Field, 0, len(c.fields)+len(fields))
	newFields = append(newFields, c.fields...)
	newFields = append(newFields, fields...)

	return &ConsoleLogger{
		out:       c.out,
		mu:        c.mu,
		component: c.component,
		fields:    newFields,
		now:       c.now,
	}
}

func (c *ConsoleLogger) write(level domain.LogLevel, msg string, fields []domain.Field) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] [%s] %s",
		c.now().Format("2006-01-02T15:04:05.000Z07:00"), levelToString(level), c.component, msg)

	all := append(append([]domain.Field{}, c.fields...), fields...)
	if len(all) > 0 {
		b.WriteString(" {")
		for i, field := range all {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", field.Key, field.Value)
		}
		b.WriteString("}")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, b.String())
}

// TeeLogger sends every entry to both loggers.
type TeeLogger struct {
	primary   domain.Logger
	secondary domain.Logger
}

func NewTeeLogger(primary, secondary domain.Logger) *TeeLogger {
	return &TeeLogger{primary: primary, secondary: secondary}
}

func (t *TeeLogger) Debug(ctx context.Context, msg string, fields ...domain.Field) {
	t.primary.Debug(ctx, msg, fields...)
	t.secondary.Debug(ctx, msg, fields...)
}

func (t *TeeLogger) Info(ctx context.Context, msg string, fields ...domain.Field) {
	t.primary.Info(ctx, msg, fields...)
	t.secondary.Info(ctx, msg, fields...)
}

func (t *TeeLogger) Warn(ctx context.Context, msg string, fields ...domain.Field) {
	t.primary.Warn(ctx, msg, fields...)
	t.secondary.Warn(ctx, msg, fields...)
}

func (t *TeeLogger) Error(ctx context.Context, msg string, fields ...domain.Field) {
	t.primary.Error(ctx, msg, fields...)
	t.secondary.Error(ctx, msg, fields...)
}

func (t *TeeLogger) WithFields(fields ...domain.Field) domain.Logger {
	return &TeeLogger{
		primary:   t.primary.WithFields(fields...),
		secondary: t.secondary.WithFields(fields...),
	}
}
