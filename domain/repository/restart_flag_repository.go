package repository

import (
	"context"

	"github.com/ca-srg/saferestart/domain/entity"
)

// RestartFlagRepository persists the "restart desired" marker across invocations.
// Every method fails with a FLAG_STORE_IO domain error when the storage
// location is inaccessible.
type RestartFlagRepository interface {
	// SetPending records a pending restart. Repeated calls leave exactly one marker.
	SetPending(ctx context.Context, reason string) error

	// IsPending reports whether the marker exists
	IsPending(ctx context.Context) (bool, error)

	// Get returns the pending request. Pending is false when no marker exists.
	Get(ctx context.Context) (*entity.RestartRequest, error)

	// Clear removes the marker. Clearing an absent marker succeeds.
	Clear(ctx context.Context) error

	// Location returns a human-readable description of the storage location
	Location() string
}
