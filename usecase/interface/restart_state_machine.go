package usecase

import (
	"context"

	"github.com/ca-srg/saferestart/domain/entity"
)

// RestartStateMachine performs one pending-restart attempt
type RestartStateMachine interface {
	// Run never returns nil. The restart flag is cleared only when the
	// outcome is Completed.
	Run(ctx context.Context) *entity.RestartOutcome
}
