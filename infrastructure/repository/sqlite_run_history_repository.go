package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
)

const runHistorySchema = `
CREATE TABLE IF NOT EXISTS restart_runs (
	id           TEXT PRIMARY KEY,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL,
	outcome      TEXT NOT NULL,
	step         TEXT NOT NULL DEFAULT '',
	exit_status  INTEGER NOT NULL,
	closed_count INTEGER NOT NULL DEFAULT 0,
	failures     INTEGER NOT NULL DEFAULT 0,
	message      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_restart_runs_started_at ON restart_runs (started_at);
`

// SQLiteRunHistoryRepository stores run records in a local SQLite database
type SQLiteRunHistoryRepository struct {
	db   *sql.DB
	path string
}

// DefaultRunHistoryPath returns ~/.local/state/saferestart/history.db
func DefaultRunHistoryPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".local", "state", "saferestart", "history.db")
}

// NewSQLiteRunHistoryRepository opens (creating if needed) the history database at path
func NewSQLiteRunHistoryRepository(path string) (repository.RunHistoryRepository, error) {
	if path == "" {
		path = DefaultRunHistoryPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, domain.ErrRepository("open run history", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, domain.ErrRepository("open run history", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(runHistorySchema); err != nil {
		_ = db.Close()
		return nil, domain.ErrRepository("migrate run history", err)
	}

	return &SQLiteRunHistoryRepository{db: db, path: path}, nil
}

// Record inserts one run record
func (r *SQLiteRunHistoryRepository) Record(ctx context.Context, record *entity.RunRecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidInput("run record", "id is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO restart_runs (id, started_at, finished_at, outcome, step, exit_status, closed_count, failures, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.StartedAt.UnixMilli(),
		record.FinishedAt.UnixMilli(),
		string(record.Outcome),
		record.Step,
		record.ExitStatus,
		record.ClosedCount,
		record.Failures,
		record.Message,
	)
	if err != nil {
		return domain.ErrRepository("record run", err)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (r *SQLiteRunHistoryRepository) Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidInput("limit", fmt.Sprintf("must be positive, got %d", limit))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, outcome, step, exit_status, closed_count, failures, message
		 FROM restart_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, domain.ErrRepository("query run history", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*entity.RunRecord, 0)
	for rows.Next() {
		var (
			rec        entity.RunRecord
			started    int64
			finished   int64
			outcomeStr string
		)
		if err := rows.Scan(&rec.ID, &started, &finished, &outcomeStr, &rec.Step,
			&rec.ExitStatus, &rec.ClosedCount, &rec.Failures, &rec.Message); err != nil {
			return nil, domain.ErrRepository("scan run history", err)
		}
		rec.StartedAt = time.UnixMilli(started).UTC()
		rec.FinishedAt = time.UnixMilli(finished).UTC()
		rec.Outcome = entity.OutcomeKind(outcomeStr)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrRepository("query run history", err)
	}
	return records, nil
}

// Close closes the database
func (r *SQLiteRunHistoryRepository) Close() error {
	return r.db.Close()
}

// NoOpRunHistoryRepository is used when run history is disabled
type NoOpRunHistoryRepository struct{}

// NewNoOpRunHistoryRepository creates a history repository that stores nothing
func NewNoOpRunHistoryRepository() repository.RunHistoryRepository {
	return &NoOpRunHistoryRepository{}
}

func (r *NoOpRunHistoryRepository) Record(ctx context.Context, record *entity.RunRecord) error {
	return nil
}

func (r *NoOpRunHistoryRepository) Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error) {
	return []*entity.RunRecord{}, nil
}

func (r *NoOpRunHistoryRepository) Close() error {
	return nil
}
