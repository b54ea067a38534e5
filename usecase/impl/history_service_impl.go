package impl

import (
	"context"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

// HistoryServiceImpl implements HistoryService
type HistoryServiceImpl struct {
	history   repository.RunHistoryRepository
	csvWriter repository.CSVWriterRepository
	enabled   bool
	logger    domain.Logger
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(history repository.RunHistoryRepository, csvWriter repository.CSVWriterRepository, enabled bool, logger domain.Logger) usecase.HistoryService {
	return &HistoryServiceImpl{
		history:   history,
		csvWriter: csvWriter,
		enabled:   enabled,
		logger:    logger,
	}
}

// Recent returns up to limit runs, newest first
func (s *HistoryServiceImpl) Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error) {
	if !s.enabled {
		return nil, domain.ErrInvalidState("run history", "disabled", "read runs")
	}
	if limit <= 0 {
		return nil, domain.ErrInvalidInput("limit", "must be positive")
	}
	return s.history.Recent(ctx, limit)
}

// ExportCSV writes up to limit runs to outputPath
func (s *HistoryServiceImpl) ExportCSV(ctx context.Context, limit int, outputPath string) (int, error) {
	if outputPath == "" {
		return 0, domain.ErrInvalidInput("outputPath", "cannot be empty")
	}

	records, err := s.Recent(ctx, limit)
	if err != nil {
		return 0, err
	}

	s.logger.Debug(ctx, "Exporting run history",
		domain.NewField("records", len(records)),
		domain.NewField("outputPath", outputPath))

	if err := s.csvWriter.Write(records, outputPath); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Enabled reports whether runs are being recorded
func (s *HistoryServiceImpl) Enabled() bool {
	return s.enabled
}
