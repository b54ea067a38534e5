package usecase

import "context"

// TriggerService marks a restart as pending for the next controller run
type TriggerService interface {
	Trigger(ctx context.Context, reason string) error
}
