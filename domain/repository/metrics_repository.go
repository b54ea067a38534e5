package repository

import (
	"context"

	"github.com/ca-srg/saferestart/domain/entity"
)

// MetricsRepository defines the interface for sending run metrics to external systems
type MetricsRepository interface {
	// SendRunMetrics publishes the result of one controller run
	SendRunMetrics(ctx context.Context, record *entity.RunRecord) error

	// Close cleans up any resources used by the metrics repository
	Close() error
}

// MetricsRepositoryError represents errors from the metrics repository
type MetricsRepositoryError struct {
	Operation string
	Err       error
}

func (e *MetricsRepositoryError) Error() string {
	if e.Err != nil {
		return "metrics repository error in " + e.Operation + ": " + e.Err.Error()
	}
	return "metrics repository error in " + e.Operation
}

func (e *MetricsRepositoryError) Unwrap() error {
	return e.Err
}

// NewMetricsRepositoryError creates a new metrics repository error
func NewMetricsRepositoryError(operation string, err error) error {
	return &MetricsRepositoryError{
		Operation: operation,
		Err:       err,
	}
}
