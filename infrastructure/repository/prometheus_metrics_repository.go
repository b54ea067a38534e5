package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
	"github.com/ca-srg/saferestart/infrastructure/config"
)

// Run metric names
const (
	MetricRunOutcome       = "saferestart_run_outcome"
	MetricRunExitStatus    = "saferestart_run_exit_status"
	MetricRunDuration      = "saferestart_run_duration_seconds"
	MetricClosedResources  = "saferestart_closed_resources"
	MetricCloseFailures    = "saferestart_close_failures"
	MetricLastRunTimestamp = "saferestart_last_run_timestamp_seconds"
)

// PrometheusMetricsRepository implements MetricsRepository using Prometheus Remote Write
type PrometheusMetricsRepository struct {
	config    *config.PrometheusConfig
	rwClient  *RemoteWriteClient
	hostLabel string
}

// NewPrometheusMetricsRepository creates a new Prometheus metrics repository
func NewPrometheusMetricsRepository(cfg *config.PrometheusConfig) (repository.MetricsRepository, error) {
	if cfg == nil {
		return nil, repository.NewMetricsRepositoryError("initialize", fmt.Errorf("prometheus config is nil"))
	}
	if cfg.RemoteWriteURL == "" {
		return nil, repository.NewMetricsRepositoryError("initialize", fmt.Errorf("remote write url is empty"))
	}

	var authConfig *AuthConfig
	if cfg.RemoteWriteUsername != "" && cfg.RemoteWritePassword != "" {
		authConfig = &AuthConfig{
			Username: cfg.RemoteWriteUsername,
			Password: cfg.RemoteWritePassword,
		}
	}

	rwClient, err := NewRemoteWriteClient(cfg.RemoteWriteURL, time.Duration(cfg.TimeoutSec)*time.Second, authConfig)
	if err != nil {
		return nil, repository.NewMetricsRepositoryError("initialize", err)
	}

	return &PrometheusMetricsRepository{
		config:    cfg,
		rwClient:  rwClient,
		hostLabel: resolveHostLabel(cfg.HostLabel),
	}, nil
}

// resolveHostLabel falls back to the hostname, then "unknown"
func resolveHostLabel(configured string) string {
	if configured != "" {
		return configured
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "unknown"
	}
	return hostname
}

// SendRunMetrics pushes the gauges describing one run
func (r *PrometheusMetricsRepository) SendRunMetrics(ctx context.Context, record *entity.RunRecord) error {
	if record == nil {
		return repository.NewMetricsRepositoryError("send", fmt.Errorf("run record is nil"))
	}

	if r.config.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.config.TimeoutSec)*time.Second)
		defer cancel()
	}

	if err := r.rwClient.Send(ctx, runSamples(record, r.hostLabel)); err != nil {
		if ctx.Err() != nil {
			return repository.NewMetricsRepositoryError("send", fmt.Errorf("timeout: %w", err))
		}
		return repository.NewMetricsRepositoryError("send", err)
	}
	return nil
}

// runSamples maps a run record onto gauge samples
func runSamples(record *entity.RunRecord, host string) []gaugeSample {
	base := map[string]string{"host": host}
	withOutcome := map[string]string{
		"host":    host,
		"outcome": string(record.Outcome),
		"step":    record.Step,
	}

	return []gaugeSample{
		{Name: MetricRunOutcome, Value: 1, Labels: withOutcome},
		{Name: MetricRunExitStatus, Value: float64(record.ExitStatus), Labels: base},
		{Name: MetricRunDuration, Value: record.Duration().Seconds(), Labels: withOutcome},
		{Name: MetricClosedResources, Value: float64(record.ClosedCount), Labels: base},
		{Name: MetricCloseFailures, Value: float64(record.Failures), Labels: base},
		{Name: MetricLastRunTimestamp, Value: float64(record.FinishedAt.Unix()), Labels: base},
	}
}

// Close cleans up resources
func (r *PrometheusMetricsRepository) Close() error {
	// Remote Write client doesn't require explicit cleanup
	return nil
}
