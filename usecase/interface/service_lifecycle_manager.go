package usecase

import "context"

// ServiceLifecycleManager stops and starts the server's two subsystems in
// strict order. Failures are *domain.StepError and nothing is rolled back.
type ServiceLifecycleManager interface {
	// Stop stops the admin server, then the main server
	Stop(ctx context.Context) error

	// Start starts the main server, then the admin server
	Start(ctx context.Context) error

	// Restart runs Stop followed by Start
	Restart(ctx context.Context) error

	// Steps returns the step names in execution order
	Steps() []string
}
