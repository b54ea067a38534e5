package repository

import (
	"context"

	"github.com/ca-srg/saferestart/domain/entity"
)

// AdminRepository wraps the managed server's admin command interface.
// Every call blocks until the admin tool exits; a non-zero exit yields a
// *domain.AdminCommandError carrying the status and raw output.
type AdminRepository interface {
	// ListClients returns the raw client listing rows, header row included
	ListClients(ctx context.Context) ([]entity.ClientSession, error)

	// ListOpenResources returns the hosted resources currently open
	ListOpenResources(ctx context.Context) ([]entity.OpenResource, error)

	// CloseAll closes every open resource and returns the tool's log
	CloseAll(ctx context.Context, force bool) (*entity.CloseLog, error)

	// StopSubsystem stops a subsystem non-interactively
	StopSubsystem(ctx context.Context, subsystem entity.Subsystem) error

	// StartSubsystem starts a subsystem
	StartSubsystem(ctx context.Context, subsystem entity.Subsystem) error
}

// CommandRunner executes an external program and returns its combined output
// and exit status. err is reserved for failures to run the program at all.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (output string, exitStatus int, err error)
}
