package impl

import (
	"context"
	"fmt"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

// SubsystemNamer resolves the admin tool's name for a subsystem
type SubsystemNamer interface {
	SubsystemName(subsystem entity.Subsystem) string
}

// ServiceLifecycleManagerImpl implements ServiceLifecycleManager
type ServiceLifecycleManagerImpl struct {
	admin  repository.AdminRepository
	namer  SubsystemNamer
	logger domain.Logger
}

// NewServiceLifecycleManager creates a new ServiceLifecycleManager. namer may
// be nil, in which case steps are named after the subsystem identifiers.
func NewServiceLifecycleManager(admin repository.AdminRepository, namer SubsystemNamer, logger domain.Logger) usecase.ServiceLifecycleManager {
	return &ServiceLifecycleManagerImpl{
		admin:  admin,
		namer:  namer,
		logger: logger,
	}
}

// Stop runs the stop half of the restart sequence
func (m *ServiceLifecycleManagerImpl) Stop(ctx context.Context) error {
	return m.runSteps(ctx, entity.RestartSequence[:2])
}

// Start runs the start half of the restart sequence
func (m *ServiceLifecycleManagerImpl) Start(ctx context.Context) error {
	return m.runSteps(ctx, entity.RestartSequence[2:])
}

// Restart runs the whole sequence, stopping at the first failure
func (m *ServiceLifecycleManagerImpl) Restart(ctx context.Context) error {
	if err := m.Stop(ctx); err != nil {
		return err
	}
	return m.Start(ctx)
}

// Steps returns the step names in execution order
func (m *ServiceLifecycleManagerImpl) Steps() []string {
	steps := make([]string, 0, len(entity.RestartSequence))
	for _, step := range entity.RestartSequence {
		steps = append(steps, m.stepName(step))
	}
	return steps
}

func (m *ServiceLifecycleManagerImpl) runSteps(ctx context.Context, steps []entity.LifecycleStep) error {
	for _, step := range steps {
		name := m.stepName(step)
		m.logger.Info(ctx, "Running lifecycle step", domain.NewField(domain.FieldStep, name))

		var err error
		switch step.Action {
		case entity.ActionStop:
			err = m.admin.StopSubsystem(ctx, step.Subsystem)
		case entity.ActionStart:
			err = m.admin.StartSubsystem(ctx, step.Subsystem)
		default:
			err = fmt.Errorf("unknown lifecycle action %q", step.Action)
		}

		if err != nil {
			stepErr := domain.NewStepError(name, err)
			m.logger.Error(ctx, "Lifecycle step failed",
				domain.NewField(domain.FieldStep, name),
				domain.NewField(domain.FieldExitStatus, stepErr.ExitStatus),
				domain.ErrorField(err))
			return stepErr
		}
	}
	return nil
}

func (m *ServiceLifecycleManagerImpl) stepName(step entity.LifecycleStep) string {
	name := string(step.Subsystem)
	if m.namer != nil {
		name = m.namer.SubsystemName(step.Subsystem)
	}
	return fmt.Sprintf("%s %s", step.Action, name)
}
