package impl

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/repository"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

const maxReasonLength = 200

// TriggerServiceImpl implements TriggerService
type TriggerServiceImpl struct {
	flagRepo repository.RestartFlagRepository
	logger   domain.Logger
}

// NewTriggerService creates a new TriggerService
func NewTriggerService(flagRepo repository.RestartFlagRepository, logger domain.Logger) usecase.TriggerService {
	return &TriggerServiceImpl{
		flagRepo: flagRepo,
		logger:   logger,
	}
}

// Trigger marks a restart as pending. Triggering twice keeps the first request.
func (s *TriggerServiceImpl) Trigger(ctx context.Context, reason string) error {
	reason = strings.TrimSpace(reason)
	if strings.ContainsAny(reason, "\r\n") {
		return domain.ErrInvalidInput("reason", "must be a single line")
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return domain.ErrInvalidInput("reason", "must be at most 200 characters")
	}

	if err := s.flagRepo.SetPending(ctx, reason); err != nil {
		s.logger.Error(ctx, "Failed to set restart flag",
			domain.ErrorField(err),
			domain.NewField("location", s.flagRepo.Location()))
		return err
	}

	s.logger.Info(ctx, "Restart requested",
		domain.NewField("reason", reason),
		domain.NewField("location", s.flagRepo.Location()))
	return nil
}
