package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestartOutcome_ExitCode(t *testing.T) {
	tests := []struct {
		name    string
		outcome RestartOutcome
		want    int
	}{
		{name: "completed", outcome: RestartOutcome{Kind: OutcomeCompleted}, want: 0},
		{name: "nothing to do", outcome: RestartOutcome{Kind: OutcomeAbortedNothingToDo}, want: 0},
		{name: "clients connected", outcome: RestartOutcome{Kind: OutcomeAbortedClientsConnected}, want: 75},
		{name: "failed with status", outcome: RestartOutcome{Kind: OutcomeFailedAtStep, Step: "stop server", ExitStatus: 3}, want: 3},
		{name: "failed without status", outcome: RestartOutcome{Kind: OutcomeFailedAtStep, Step: "confirm"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.ExitCode())
		})
	}
}

func TestRestartOutcome_StateTrail(t *testing.T) {
	start := time.Now()
	o := NewRestartOutcome(start)

	assert.Equal(t, StateIdle, o.Current())

	o.Enter(StateCheckPending)
	o.Enter(StateDraining)

	assert.Equal(t, StateDraining, o.Current())
	assert.True(t, o.Visited(StateCheckPending))
	assert.False(t, o.Visited(StateStopping))
	assert.Equal(t, time.Duration(0), o.Duration())

	o.FinishedAt = start.Add(2 * time.Second)
	assert.Equal(t, 2*time.Second, o.Duration())
}

func TestRunRecord_FromOutcome(t *testing.T) {
	start := time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)
	o := &RestartOutcome{
		Kind:       OutcomeCompleted,
		Close:      NewCloseResult(3, 3),
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
	}

	rec := NewRunRecord("run-1", o)

	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, OutcomeCompleted, rec.Outcome)
	assert.Equal(t, 3, rec.ClosedCount)
	assert.Equal(t, 0, rec.ExitStatus)
	assert.Equal(t, 90*time.Second, rec.Duration())
	assert.Contains(t, rec.Message, "3 resources closed")
	assert.True(t, o.FlagCleared())
}
