package entity

import (
	"fmt"
	"time"

	"github.com/ca-srg/saferestart/domain"
)

// RestartState is a state of the restart state machine.
type RestartState string

const (
	StateIdle         RestartState = "Idle"
	StateCheckPending RestartState = "CheckPending"
	StateDraining     RestartState = "Draining"
	StateClosing      RestartState = "Closing"
	StateStopping     RestartState = "Stopping"
	StateStarting     RestartState = "Starting"
	StateConfirming   RestartState = "Confirming"
	StateAborted      RestartState = "Aborted"
	StateFailed       RestartState = "Failed"
)

// OutcomeKind classifies how a run ended.
type OutcomeKind string

const (
	OutcomeCompleted               OutcomeKind = "completed"
	OutcomeAbortedClientsConnected OutcomeKind = "aborted_clients_connected"
	OutcomeAbortedNothingToDo      OutcomeKind = "aborted_nothing_to_do"
	OutcomeFailedAtStep            OutcomeKind = "failed_at_step"
)

// Step names reported by FailedAtStep outcomes. Lifecycle steps are named
// "<action> <subsystem name>" instead.
const (
	StepCheckPending = "check pending"
	StepClose        = "close"
	StepConfirm      = "confirm"
	StepClearFlag    = "clear flag"
)

// RestartOutcome is the result of one controller invocation.
type RestartOutcome struct {
	Kind       OutcomeKind
	Step       string
	ExitStatus int
	Close      *CloseResult
	States     []RestartState
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRestartOutcome starts an outcome in the Idle state
func NewRestartOutcome(startedAt time.Time) *RestartOutcome {
	return &RestartOutcome{
		States:    []RestartState{StateIdle},
		StartedAt: startedAt,
	}
}

// Enter appends a state to the trail
func (o *RestartOutcome) Enter(state RestartState) {
	o.States = append(o.States, state)
}

// Current returns the latest state
func (o *RestartOutcome) Current() RestartState {
	if len(o.States) == 0 {
		return StateIdle
	}
	return o.States[len(o.States)-1]
}

// Visited reports whether state appears in the trail
func (o *RestartOutcome) Visited(state RestartState) bool {
	for _, s := range o.States {
		if s == state {
			return true
		}
	}
	return false
}

// ExitCode maps the outcome to a process exit code
func (o *RestartOutcome) ExitCode() int {
	switch o.Kind {
	case OutcomeCompleted, OutcomeAbortedNothingToDo:
		return domain.ExitOK
	case OutcomeAbortedClientsConnected:
		return domain.ExitTempFail
	case OutcomeFailedAtStep:
		if o.ExitStatus == 0 {
			return domain.ExitFailure
		}
		return o.ExitStatus
	}
	return domain.ExitFailure
}

// FlagCleared reports whether this outcome cleared the restart flag
func (o *RestartOutcome) FlagCleared() bool {
	return o.Kind == OutcomeCompleted
}

// Duration is the wall time of the run
func (o *RestartOutcome) Duration() time.Duration {
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// Summary is a one-line human description
func (o *RestartOutcome) Summary() string {
	switch o.Kind {
	case OutcomeCompleted:
		closed := 0
		if o.Close != nil {
			closed = o.Close.ClosedCount
		}
		return fmt.Sprintf("restart completed (%d resources closed)", closed)
	case OutcomeAbortedNothingToDo:
		return "no restart pending, no action taken"
	case OutcomeAbortedClientsConnected:
		return "restart deferred: clients are connected"
	case OutcomeFailedAtStep:
		return fmt.Sprintf("restart failed at %q with status %d", o.Step, o.ExitCode())
	}
	return "restart outcome unknown"
}
