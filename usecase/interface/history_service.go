package usecase

import (
	"context"

	"github.com/ca-srg/saferestart/domain/entity"
)

// HistoryService reads past controller runs
type HistoryService interface {
	// Recent returns up to limit runs, newest first
	Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error)

	// ExportCSV writes up to limit runs to outputPath and returns how many were written
	ExportCSV(ctx context.Context, limit int, outputPath string) (int, error)

	// Enabled reports whether runs are being recorded
	Enabled() bool
}
