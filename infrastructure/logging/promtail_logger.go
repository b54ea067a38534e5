package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/ic2hrmk/promtail"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/infrastructure/config"
)

const (
	appLabel          = "saferestart"
	promtailBatchSize = 100
)

// NewPromtailClient creates the Loki push client shared by every component logger
func NewPromtailClient(cfg *config.PromtailConfig) (promtail.Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("promtail url is not configured")
	}

	batchWait := time.Duration(cfg.BatchWaitSeconds) * time.Second
	if batchWait <= 0 {
		batchWait = time.Second
	}

	labels := map[string]string{"app": appLabel}

	var (
		client promtail.Client
		err    error
	)
	if cfg.Username != "" || cfg.Password != "" {
		client, err = promtail.NewJSONv1Client(cfg.URL, labels,
			promtail.WithSendBatchSize(promtailBatchSize),
			promtail.WithSendBatchTimeout(batchWait),
			promtail.WithBasicAuth(cfg.Username, cfg.Password),
		)
	} else {
		client, err = promtail.NewJSONv1Client(cfg.URL, labels,
			promtail.WithSendBatchSize(promtailBatchSize),
			promtail.WithSendBatchTimeout(batchWait),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create promtail client: %w", err)
	}
	return client, nil
}

// PromtailLogger pushes log lines to Loki. Fields become stream labels.
type PromtailLogger struct {
	client    promtail.Client
	component string
	fields    []domain.Field
}

func NewPromtailLogger(client promtail.Client, component string) *PromtailLogger {
	return &PromtailLogger{
		client:    client,
		component: component,
	}
}

func (p *PromtailLogger) Debug(ctx context.Context, msg string, fields ...domain.Field) {
	p.log(domain.LogLevelDebug, msg, fields...)
}

func (p *PromtailLogger) Info(ctx context.Context, msg string, fields ...domain.Field) {
	p.log(domain.LogLevelInfo, msg, fields...)
}

func (p *PromtailLogger) Warn(ctx context.Context, msg string, fields ...domain.Field) {
	p.log(domain.LogLevelWarn, msg, fields...)
}

func (p *PromtailLogger) Error(ctx context.Context, msg string, fields ...domain.Field) {
	p.log(domain.LogLevelError, msg, fields...)
}

func (p *PromtailLogger) WithFields(fields ...domain.Field) domain.Logger {
	newFields := make([]domain.Field, 0, len(p.fields)+len(fields))
	newFields = append(newFields, p.fields...)
	newFields = append(newFields, fields...)

	return &PromtailLogger{
		client:    p.client,
		component: p.component,
		fields:    newFields,
	}
}

// labels builds the stream labels for one line
func (p *PromtailLogger) labels(level domain.LogLevel, fields []domain.Field) map[string]string {
	labels := map[string]string{
		"component": p.component,
		"level":     levelToString(level),
	}
	for _, field := range p.fields {
		labels[field.Key] = fmt.Sprintf("%v", field.Value)
	}
	for _, field := range fields {
		labels[field.Key] = fmt.Sprintf("%v", field.Value)
	}
	return labels
}

func (p *PromtailLogger) log(level domain.LogLevel, msg string, fields ...domain.Field) {
	if p.client == nil {
		return
	}
	p.client.LogfWithLabels(toPromtailLevel(level), p.labels(level, fields), "%s", msg)
}

func toPromtailLevel(level domain.LogLevel) promtail.Level {
	switch level {
	case domain.LogLevelDebug:
		return promtail.Debug
	case domain.LogLevelWarn:
		return promtail.Warn
	case domain.LogLevelError:
		return promtail.Error
	default:
		return promtail.Info
	}
}
