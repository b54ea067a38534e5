package impl

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/domain/repository"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

const reportTimeout = 30 * time.Second

// ConfirmSettings controls how quiescence is confirmed after the restart
type ConfirmSettings struct {
	// PollInterval is the delay between observations
	PollInterval time.Duration

	// Timeout bounds confirmation; zero waits until the context is cancelled
	Timeout time.Duration

	// ExpectReopened expects every closed resource to be open again
	ExpectReopened bool

	// TrackResources includes the open-resource count in the condition
	TrackResources bool
}

// RestartStateMachineImpl implements RestartStateMachine
type RestartStateMachineImpl struct {
	flagRepo  repository.RestartFlagRepository
	admin     repository.AdminRepository
	drain     usecase.DrainController
	closer    usecase.CloseOrchestrator
	lifecycle usecase.ServiceLifecycleManager
	history   repository.RunHistoryRepository
	metrics   repository.MetricsRepository
	confirm   ConfirmSettings
	clock     clock.Clock
	newID     func() string
	logger    domain.Logger
}

// NewRestartStateMachine creates a new RestartStateMachine. history and
// metrics may be nil.
func NewRestartStateMachine(
	flagRepo repository.RestartFlagRepository,
	admin repository.AdminRepository,
	drain usecase.DrainController,
	closer usecase.CloseOrchestrator,
	lifecycle usecase.ServiceLifecycleManager,
	history repository.RunHistoryRepository,
	metrics repository.MetricsRepository,
	confirm ConfirmSettings,
	clk clock.Clock,
	logger domain.Logger,
) usecase.RestartStateMachine {
	if clk == nil {
		clk = clock.WallClock
	}
	if confirm.PollInterval <= 0 {
		confirm.PollInterval = 5 * time.Second
	}
	return &RestartStateMachineImpl{
		flagRepo:  flagRepo,
		admin:     admin,
		drain:     drain,
		closer:    closer,
		lifecycle: lifecycle,
		history:   history,
		metrics:   metrics,
		confirm:   confirm,
		clock:     clk,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

// Run performs one restart attempt and records its outcome
func (m *RestartStateMachineImpl) Run(ctx context.Context) *entity.RestartOutcome {
	runID := m.newID()
	logger := m.logger.WithFields(domain.NewField(domain.FieldRunID, runID))

	outcome := entity.NewRestartOutcome(m.clock.Now())
	m.drive(ctx, logger, outcome)
	outcome.FinishedAt = m.clock.Now()

	fields := []domain.Field{
		domain.NewField("outcome", string(outcome.Kind)),
		domain.NewField(domain.FieldExitStatus, outcome.ExitCode()),
		domain.NewField("duration", outcome.Duration().String()),
	}
	switch outcome.Kind {
	case entity.OutcomeFailedAtStep:
		logger.Error(ctx, outcome.Summary(), append(fields,
			domain.NewField(domain.FieldStep, outcome.Step),
			domain.ErrorField(outcome.Err))...)
	default:
		logger.Info(ctx, outcome.Summary(), fields...)
	}

	m.report(ctx, logger, runID, outcome)
	return outcome
}

func (m *RestartStateMachineImpl) drive(ctx context.Context, logger domain.Logger, outcome *entity.RestartOutcome) {
	m.enter(ctx, logger, outcome, entity.StateCheckPending)
	pending, err := m.flagRepo.IsPending(ctx)
	if err != nil {
		m.fail(ctx, logger, outcome, domain.NewStepError(entity.StepCheckPending, err))
		return
	}
	if !pending {
		outcome.Kind = entity.OutcomeAbortedNothingToDo
		outcome.Err = domain.ErrNothingToDo("no restart pending")
		m.enter(ctx, logger, outcome, entity.StateIdle)
		return
	}

	m.enter(ctx, logger, outcome, entity.StateDraining)
	closeResult, err := m.closer.Close(ctx)
	if domain.IsErrorCode(err, domain.ErrCodePreconditionAbort) {
		outcome.Kind = entity.OutcomeAbortedClientsConnected
		outcome.Err = err
		m.enter(ctx, logger, outcome, entity.StateAborted)
		return
	}
	m.enter(ctx, logger, outcome, entity.StateClosing)
	if err != nil {
		m.fail(ctx, logger, outcome, domain.NewStepError(entity.StepClose, err))
		return
	}
	outcome.Close = closeResult

	m.enter(ctx, logger, outcome, entity.StateStopping)
	if err := m.lifecycle.Stop(ctx); err != nil {
		m.fail(ctx, logger, outcome, err)
		return
	}

	m.enter(ctx, logger, outcome, entity.StateStarting)
	if err := m.lifecycle.Start(ctx); err != nil {
		m.fail(ctx, logger, outcome, err)
		return
	}

	m.enter(ctx, logger, outcome, entity.StateConfirming)
	if err := m.awaitQuiescence(ctx, logger, m.expectedOpen(closeResult)); err != nil {
		m.fail(ctx, logger, outcome, domain.NewStepError(entity.StepConfirm, err))
		return
	}

	if err := m.flagRepo.Clear(ctx); err != nil {
		m.fail(ctx, logger, outcome, domain.NewStepError(entity.StepClearFlag, err))
		return
	}

	outcome.Kind = entity.OutcomeCompleted
	m.enter(ctx, logger, outcome, entity.StateIdle)
}

func (m *RestartStateMachineImpl) expectedOpen(result *entity.CloseResult) int {
	if m.confirm.ExpectReopened && result != nil {
		return result.ClosedCount
	}
	return 0
}

// awaitQuiescence polls until no client is connected and, when tracked, the
// open-resource count equals expected. The final observation happens at the
// deadline.
func (m *RestartStateMachineImpl) awaitQuiescence(ctx context.Context, logger domain.Logger, expected int) error {
	var deadline time.Time
	if m.confirm.Timeout > 0 {
		deadline = m.clock.Now().Add(m.confirm.Timeout)
	}

	for attempt := 1; ; attempt++ {
		clients, open, err := m.observe(ctx)
		if err == nil && clients == 0 && (!m.confirm.TrackResources || open == expected) {
			logger.Info(ctx, "Server is quiescent",
				domain.NewField("attempts", attempt),
				domain.NewField("open_resources", open))
			return nil
		}

		fields := []domain.Field{
			domain.NewField("attempt", attempt),
			domain.NewField("clients", clients),
			domain.NewField("open_resources", open),
			domain.NewField("expected_resources", expected),
		}
		if err != nil {
			logger.Warn(ctx, "Quiescence check failed", append(fields, domain.ErrorField(err))...)
		} else {
			logger.Debug(ctx, "Server not quiescent yet", fields...)
		}

		wait := m.confirm.PollInterval
		if !deadline.IsZero() {
			remaining := deadline.Sub(m.clock.Now())
			if remaining <= 0 {
				return domain.ErrConfirmTimeout(clients, open, expected, err)
			}
			if remaining < wait {
				wait = remaining
			}
		}

		select {
		case <-ctx.Done():
			return domain.ErrConfirmTimeout(clients, open, expected, ctx.Err())
		case <-m.clock.After(wait):
		}
	}
}

// observe returns the connected client count and, when tracked, the open
// resource count (-1 otherwise).
func (m *RestartStateMachineImpl) observe(ctx context.Context) (int, int, error) {
	clients, err := m.drain.ConnectedCount(ctx)
	if err != nil {
		return -1, -1, err
	}
	if !m.confirm.TrackResources {
		return clients, -1, nil
	}

	resources, err := m.admin.ListOpenResources(ctx)
	if err != nil {
		return clients, -1, err
	}
	return clients, entity.CountOpen(resources), nil
}

func (m *RestartStateMachineImpl) enter(ctx context.Context, logger domain.Logger, outcome *entity.RestartOutcome, state entity.RestartState) {
	outcome.Enter(state)
	logger.Debug(ctx, "Entered state", domain.NewField(domain.FieldState, string(state)))
}

func (m *RestartStateMachineImpl) fail(ctx context.Context, logger domain.Logger, outcome *entity.RestartOutcome, err error) {
	outcome.Kind = entity.OutcomeFailedAtStep
	outcome.Err = err

	var stepErr *domain.StepError
	if errors.As(err, &stepErr) {
		outcome.Step = stepErr.Step
		outcome.ExitStatus = stepErr.ExitStatus
	} else {
		outcome.ExitStatus = domain.ExitStatusOf(err)
	}
	m.enter(ctx, logger, outcome, entity.StateFailed)
}

// report persists the run and pushes metrics. Neither may change the outcome.
func (m *RestartStateMachineImpl) report(ctx context.Context, logger domain.Logger, runID string, outcome *entity.RestartOutcome) {
	if m.history == nil && m.metrics == nil {
		return
	}

	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	record := entity.NewRunRecord(runID, outcome)

	if m.history != nil {
		if err := m.history.Record(reportCtx, record); err != nil {
			logger.Warn(ctx, "Failed to record run history", domain.ErrorField(err))
		}
	}
	if m.metrics != nil {
		if err := m.metrics.SendRunMetrics(reportCtx, record); err != nil {
			logger.Warn(ctx, "Failed to send run metrics", domain.ErrorField(err))
		}
	}
}
