package impl

import (
	"context"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/repository"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

// StatusServiceImpl implements StatusService
type StatusServiceImpl struct {
	configService usecase.ConfigService
	flagRepo      repository.RestartFlagRepository
	history       usecase.HistoryService
	logger        domain.Logger
}

// NewStatusService creates a new instance of StatusService
func NewStatusService(configService usecase.ConfigService, flagRepo repository.RestartFlagRepository, history usecase.HistoryService, logger domain.Logger) usecase.StatusService {
	return &StatusServiceImpl{
		configService: configService,
		flagRepo:      flagRepo,
		history:       history,
		logger:        logger,
	}
}

// GetStatus returns the current status information. A failing history read
// is logged and leaves LastRun empty; a failing flag read is returned.
func (s *StatusServiceImpl) GetStatus(ctx context.Context) (*usecase.StatusInfo, error) {
	request, err := s.flagRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	status := &usecase.StatusInfo{
		ConfigPath:     s.configService.GetConfigPath(),
		Config:         s.configService.ExportConfig(),
		FlagLocation:   s.flagRepo.Location(),
		Request:        request,
		HistoryEnabled: s.history != nil && s.history.Enabled(),
	}

	if status.HistoryEnabled {
		runs, err := s.history.Recent(ctx, 1)
		if err != nil {
			s.logger.Warn(ctx, "Failed to read run history", domain.ErrorField(err))
		} else if len(runs) > 0 {
			status.LastRun = runs[0]
		}
	}

	return status, nil
}
