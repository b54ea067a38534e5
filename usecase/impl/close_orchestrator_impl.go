package impl

import (
	"context"
	"fmt"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

// CloseOrchestratorImpl implements CloseOrchestrator
type CloseOrchestratorImpl struct {
	admin          repository.AdminRepository
	drain          usecase.DrainController
	closedMarker   string
	trackResources bool
	logger         domain.Logger
}

// NewCloseOrchestrator creates a new CloseOrchestrator. When trackResources
// is set, the open-resource listing is consulted before closing and an idle
// server is left alone.
func NewCloseOrchestrator(admin repository.AdminRepository, drain usecase.DrainController, closedMarker string, trackResources bool, logger domain.Logger) usecase.CloseOrchestrator {
	return &CloseOrchestratorImpl{
		admin:          admin,
		drain:          drain,
		closedMarker:   closedMarker,
		trackResources: trackResources,
		logger:         logger,
	}
}

// Close closes all open resources
func (o *CloseOrchestratorImpl) Close(ctx context.Context) (*entity.CloseResult, error) {
	if o.drain.ClientsConnected(ctx) {
		o.logger.Info(ctx, "Clients are connected, deferring restart")
		return nil, domain.ErrClientsConnected()
	}

	openBefore := -1
	if o.trackResources {
		resources, err := o.admin.ListOpenResources(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list open resources: %w", err)
		}
		openBefore = entity.CountOpen(resources)

		if openBefore == 0 {
			o.logger.Info(ctx, "No open resources, skipping close")
			result := entity.NewCloseResult(0, 0)
			result.NothingToDo = true
			return result, nil
		}
	}

	closeLog, err := o.admin.CloseAll(ctx, true)
	if err != nil {
		return nil, err
	}

	result := entity.NewCloseResult(closeLog.CountMarked(o.closedMarker), openBefore)
	fields := []domain.Field{
		domain.NewField("closed", result.ClosedCount),
		domain.NewField("open_before", result.OpenBefore),
	}
	if result.Failures > 0 {
		o.logger.Warn(ctx, "Some resources were not reported closed",
			append(fields, domain.NewField("failures", result.Failures))...)
	} else {
		o.logger.Info(ctx, "Closed open resources", fields...)
	}
	return result, nil
}
