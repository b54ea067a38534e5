package repository

import (
	"context"
	"errors"

	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
)

// NoOpMetricsRepository is a no-op implementation of MetricsRepository
// Used when no metrics sink is configured
type NoOpMetricsRepository struct{}

// NewNoOpMetricsRepository creates a new no-op metrics repository
func NewNoOpMetricsRepository() repository.MetricsRepository {
	return &NoOpMetricsRepository{}
}

// SendRunMetrics does nothing
func (r *NoOpMetricsRepository) SendRunMetrics(ctx context.Context, record *entity.RunRecord) error {
	return nil
}

// Close does nothing
func (r *NoOpMetricsRepository) Close() error {
	return nil
}

// CompositeMetricsRepository fans a run out to several sinks
type CompositeMetricsRepository struct {
	sinks []repository.MetricsRepository
}

// NewCompositeMetricsRepository returns the single sink when only one is given
// and a no-op repository when none are
func NewCompositeMetricsRepository(sinks ...repository.MetricsRepository) repository.MetricsRepository {
	switch len(sinks) {
	case 0:
		return NewNoOpMetricsRepository()
	case 1:
		return sinks[0]
	}
	return &CompositeMetricsRepository{sinks: sinks}
}

// SendRunMetrics sends to every sink; one failing sink does not stop the others
func (r *CompositeMetricsRepository) SendRunMetrics(ctx context.Context, record *entity.RunRecord) error {
	var errs []error
	for _, sink := range r.sinks {
		if err := sink.SendRunMetrics(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink
func (r *CompositeMetricsRepository) Close() error {
	var errs []error
	for _, sink := range r.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
