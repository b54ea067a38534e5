package usecase

import (
	"context"

	"github.com/ca-srg/saferestart/domain/entity"
)

// StatusInfo represents the controller's current view of the managed server
type StatusInfo struct {
	// ConfigPath is the JSON configuration file consulted
	ConfigPath string

	// Config is the resolved configuration with secrets masked
	Config map[string]interface{}

	// FlagLocation is where the restart flag is stored
	FlagLocation string

	// Request is the restart flag state
	Request *entity.RestartRequest

	// HistoryEnabled reports whether runs are recorded
	HistoryEnabled bool

	// LastRun is the most recent recorded run, nil when none
	LastRun *entity.RunRecord
}

// StatusService provides status information about the controller
type StatusService interface {
	// GetStatus returns the current status information
	GetStatus(ctx context.Context) (*StatusInfo, error)
}
