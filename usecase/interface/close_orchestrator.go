package usecase

import (
	"context"

	"github.com/ca-srg/saferestart/domain/entity"
)

// CloseOrchestrator closes every open resource once no client is connected
type CloseOrchestrator interface {
	// Close returns a PRECONDITION_ABORT domain error without touching the
	// server while clients are connected.
	Close(ctx context.Context) (*entity.CloseResult, error)
}
