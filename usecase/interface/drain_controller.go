package usecase

import "context"

// DrainController decides whether the server is idle enough to disrupt
type DrainController interface {
	// ClientsConnected reports whether any client session is active.
	// A listing failure is reported as connected.
	ClientsConnected(ctx context.Context) bool

	// ConnectedCount returns the number of active client sessions
	ConnectedCount(ctx context.Context) (int, error)
}
