package impl

import (
	"context"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

// DrainControllerImpl implements DrainController
type DrainControllerImpl struct {
	admin  repository.AdminRepository
	logger domain.Logger
}

// NewDrainController creates a new DrainController
func NewDrainController(admin repository.AdminRepository, logger domain.Logger) usecase.DrainController {
	return &DrainControllerImpl{
		admin:  admin,
		logger: logger,
	}
}

// ClientsConnected fails safe: a listing it cannot read counts as connected
func (d *DrainControllerImpl) ClientsConnected(ctx context.Context) bool {
	count, err := d.ConnectedCount(ctx)
	if err != nil {
		d.logger.Error(ctx, "Failed to list clients, assuming clients are connected",
			domain.ErrorField(err),
			domain.NewField(domain.FieldExitStatus, domain.ExitStatusOf(err)))
		return true
	}

	d.logger.Debug(ctx, "Listed clients", domain.NewField("clients", count))
	return count > 0
}

// ConnectedCount returns the number of listed sessions after the header row
func (d *DrainControllerImpl) ConnectedCount(ctx context.Context) (int, error) {
	rows, err := d.admin.ListClients(ctx)
	if err != nil {
		return 0, err
	}

	count := entity.ConnectedClients(rows)
	if count < 0 {
		// empty listing
		count = 0
	}
	return count, nil
}
