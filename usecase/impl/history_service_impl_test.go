package impl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
)

type fakeCSVWriter struct {
	records []*entity.RunRecord
	path    string
	err     error
}

func (w *fakeCSVWriter) Write(records []*entity.RunRecord, outputPath string) error {
	if w.err != nil {
		return w.err
	}
	w.records = records
	w.path = outputPath
	return nil
}

func historyWithRuns(n int) *fakeHistory {
	h := &fakeHistory{}
	base := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		h.records = append(h.records, &entity.RunRecord{
			ID:        string(rune('a' + i)),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Outcome:   entity.OutcomeAbortedNothingToDo,
		})
	}
	return h
}

func TestHistoryService_Recent(t *testing.T) {
	svc := NewHistoryService(historyWithRuns(5), &fakeCSVWriter{}, true, newTestLogger())

	runs, err := svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "e", runs[0].ID)
	assert.Equal(t, "d", runs[1].ID)
	assert.True(t, svc.Enabled())

	_, err = svc.Recent(context.Background(), 0)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidInput))
}

func TestHistoryService_ExportCSV(t *testing.T) {
	writer := &fakeCSVWriter{}
	svc := NewHistoryService(historyWithRuns(3), writer, true, newTestLogger())

	n, err := svc.ExportCSV(context.Background(), 10, "exports/runs.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "exports/runs.csv", writer.path)
	assert.Len(t, writer.records, 3)
}

func TestHistoryService_ExportCSVErrors(t *testing.T) {
	svc := NewHistoryService(historyWithRuns(1), &fakeCSVWriter{}, true, newTestLogger())
	_, err := svc.ExportCSV(context.Background(), 10, "")
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidInput))

	writeErr := domain.ErrPathTraversal("../runs.csv")
	svc = NewHistoryService(historyWithRuns(1), &fakeCSVWriter{err: writeErr}, true, newTestLogger())
	_, err = svc.ExportCSV(context.Background(), 10, "../runs.csv")
	assert.ErrorIs(t, err, writeErr)

	svc = NewHistoryService(&fakeHistory{recentErr: errors.New("no such table")}, &fakeCSVWriter{}, true, newTestLogger())
	_, err = svc.ExportCSV(context.Background(), 10, "runs.csv")
	assert.Error(t, err)
}

func TestHistoryService_Disabled(t *testing.T) {
	writer := &fakeCSVWriter{}
	svc := NewHistoryService(historyWithRuns(3), writer, false, newTestLogger())

	assert.False(t, svc.Enabled())

	_, err := svc.Recent(context.Background(), 1)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidState))

	_, err = svc.ExportCSV(context.Background(), 1, "runs.csv")
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidState))
	assert.Empty(t, writer.path)
}
