package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
)

var runRecordCSVHeader = []string{
	"id", "started_at", "finished_at", "duration_seconds", "outcome",
	"step", "exit_status", "closed_count", "failures", "message",
}

// CSVWriterRepositoryImpl implements CSVWriterRepository
type CSVWriterRepositoryImpl struct {
	logger domain.Logger
}

// NewCSVWriterRepository creates a new CSV writer repository
func NewCSVWriterRepository(logger domain.Logger) repository.CSVWriterRepository {
	return &CSVWriterRepositoryImpl{
		logger: logger,
	}
}

// Write writes run records to a CSV file
func (r *CSVWriterRepositoryImpl) Write(records []*entity.RunRecord, outputPath string) error {
	if err := r.validateOutputPath(outputPath); err != nil {
		return err
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return domain.ErrFileOperationWithCause("create directory", dir, err)
	}

	// Create file with restricted permissions
	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return domain.ErrFileOperationWithCause("create file", outputPath, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			r.logger.Error(context.TODO(), "Failed to close CSV file",
				domain.ErrorField(closeErr),
				domain.NewField("path", outputPath))
		}
	}()

	// UTF-8 BOM so spreadsheet tools detect the encoding
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return domain.ErrCSVExportWithCause("write BOM", "failed to write UTF-8 BOM", err)
	}

	writer := csv.NewWriter(file)

	if err := writer.Write(runRecordCSVHeader); err != nil {
		return domain.ErrCSVExportWithCause("write header", "failed to write CSV header", err)
	}

	for _, record := range records {
		row := []string{
			record.ID,
			record.StartedAt.UTC().Format(time.RFC3339),
			record.FinishedAt.UTC().Format(time.RFC3339),
			strconv.FormatFloat(record.Duration().Seconds(), 'f', 1, 64),
			string(record.Outcome),
			sanitizeCSVField(record.Step),
			strconv.Itoa(record.ExitStatus),
			strconv.Itoa(record.ClosedCount),
			strconv.Itoa(record.Failures),
			sanitizeCSVField(record.Message),
		}
		if err := writer.Write(row); err != nil {
			return domain.ErrCSVExportWithCause("write record", fmt.Sprintf("failed to write run %s", record.ID), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return domain.ErrCSVExportWithCause("flush", "failed to flush CSV writer", err)
	}

	r.logger.Info(context.TODO(), "CSV export completed",
		domain.NewField("outputPath", outputPath),
		domain.NewField("records", len(records)))

	return nil
}

// validateOutputPath validates the output path for security
func (r *CSVWriterRepositoryImpl) validateOutputPath(path string) error {
	if strings.Contains(path, "..") {
		return domain.ErrPathTraversal(path)
	}
	cleanPath := filepath.Clean(path)

	if filepath.IsAbs(cleanPath) && !isTempPath(cleanPath) {
		systemDirs := []string{"/etc", "/usr", "/bin", "/sbin", "/var", "/proc", "/sys", "/dev"}
		for _, dir := range systemDirs {
			if cleanPath == dir || strings.HasPrefix(cleanPath, dir+"/") {
				return domain.ErrFileOperationWithCause("validate path", path, fmt.Errorf("refusing to write into system directory %s", dir))
			}
		}
	}

	base := filepath.Base(cleanPath)
	if strings.HasPrefix(base, ".") {
		return domain.ErrFileOperationWithCause("validate path", path, fmt.Errorf("cannot write to hidden files"))
	}

	if filepath.Ext(cleanPath) != ".csv" {
		return domain.ErrInvalidInput("outputPath", "file must have .csv extension")
	}

	return nil
}

func isTempPath(path string) bool {
	tmp := filepath.Clean(os.TempDir())
	return strings.HasPrefix(path, "/tmp/") || strings.HasPrefix(path, "/var/folders/") || strings.HasPrefix(path, tmp+string(filepath.Separator))
}

// sanitizeCSVField prefixes values a spreadsheet would evaluate as a formula
func sanitizeCSVField(field string) string {
	for _, prefix := range []string{"=", "+", "-", "@", "\t", "\r", "|"} {
		if strings.HasPrefix(field, prefix) {
			return "'" + field
		}
	}
	return field
}
