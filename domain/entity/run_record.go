package entity

import (
	"time"
)

// RunRecord is the persisted summary of one controller invocation.
type RunRecord struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     OutcomeKind
	Step        string
	ExitStatus  int
	ClosedCount int
	Failures    int
	Message     string
}

// NewRunRecord builds a record from a finished outcome
func NewRunRecord(id string, outcome *RestartOutcome) *RunRecord {
	rec := &RunRecord{
		ID:         id,
		StartedAt:  outcome.StartedAt,
		FinishedAt: outcome.FinishedAt,
		Outcome:    outcome.Kind,
		Step:       outcome.Step,
		ExitStatus: outcome.ExitCode(),
		Message:    outcome.Summary(),
	}
	if outcome.Close != nil {
		rec.ClosedCount = outcome.Close.ClosedCount
		rec.Failures = outcome.Close.Failures
	}
	return rec
}

// Duration is the wall time of the recorded run
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
