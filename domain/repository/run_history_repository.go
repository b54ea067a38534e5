package repository

import (
	"context"

	"github.com/ca-srg/saferestart/domain/entity"
)

// RunHistoryRepository stores a summary of every controller run
type RunHistoryRepository interface {
	Record(ctx context.Context, record *entity.RunRecord) error

	// Recent returns up to limit records, newest first
	Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error)

	Close() error
}

// CSVWriterRepository defines the interface for writing CSV files
type CSVWriterRepository interface {
	Write(records []*entity.RunRecord, outputPath string) error
}
