package di

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/repository"
	"github.com/ca-srg/saferestart/infrastructure/config"
	"github.com/ca-srg/saferestart/infrastructure/logging"
	infraRepo "github.com/ca-srg/saferestart/infrastructure/repository"
	"github.com/ca-srg/saferestart/interface/presenter"
	"github.com/ca-srg/saferestart/usecase/impl"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

// Container is the dependency injection container
type Container struct {
	// Configuration
	config        *config.AppConfig
	configRepo    repository.ConfigRepository
	configService usecase.ConfigService

	// Repositories
	flagRepo    repository.RestartFlagRepository
	adminRepo   *infraRepo.ExecAdminRepository
	historyRepo repository.RunHistoryRepository
	metricsRepo repository.MetricsRepository
	csvWriter   repository.CSVWriterRepository

	// Use Cases
	drainController   usecase.DrainController
	closeOrchestrator usecase.CloseOrchestrator
	lifecycleManager  usecase.ServiceLifecycleManager
	stateMachine      usecase.RestartStateMachine
	triggerService    usecase.TriggerService
	historyService    usecase.HistoryService
	statusService     usecase.StatusService

	// Presenters
	consolePresenter presenter.ConsolePresenter
	jsonPresenter    presenter.JSONPresenter

	// Logging
	loggerFactory domain.LoggerFactory
	logger        domain.Logger

	// Options
	debugMode  bool
	configPath string
	clock      clock.Clock
}

// ContainerOption is a function that configures the container
type ContainerOption func(*Container)

// WithDebugMode sets the debug mode
func WithDebugMode(debug bool) ContainerOption {
	return func(c *Container) {
		c.debugMode = debug
	}
}

// WithConfigPath reads configuration from path instead of the default location
func WithConfigPath(path string) ContainerOption {
	return func(c *Container) {
		c.configPath = path
	}
}

// WithClock replaces the wall clock used for confirmation polling
func WithClock(clk clock.Clock) ContainerOption {
	return func(c *Container) {
		c.clock = clk
	}
}

// NewContainer creates a new DI container. Configuration errors keep their
// INVALID_INPUT code so the caller can exit with the configuration status.
func NewContainer(opts ...ContainerOption) (*Container, error) {
	container := &Container{clock: clock.WallClock}

	// Apply options
	for _, opt := range opts {
		opt(container)
	}

	// Load configuration
	if err := container.initConfig(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	// Initialize logging
	container.initLogging()

	// Initialize repositories
	container.initRepositories()

	// Initialize use cases
	container.initUseCases()

	// Initialize presenters
	container.initPresenters()

	return container, nil
}

// initConfig initializes configuration
func (c *Container) initConfig() error {
	if c.configPath != "" {
		c.configRepo = infraRepo.NewJSONConfigRepositoryAt(c.configPath)
	} else {
		c.configRepo = infraRepo.NewJSONConfigRepository()
	}

	// Logging is configured from the result, so loading runs silently
	configService, err := impl.NewConfigService(c.configRepo, &logging.NoOpLogger{})
	if err != nil {
		return err
	}
	c.configService = configService

	cfg := configService.GetConfig()

	// Override debug mode if set via command line
	if c.debugMode {
		cfg.Logging.Debug = true
	}

	c.config = cfg
	return nil
}

// initLogging initializes logging components
func (c *Container) initLogging() {
	c.loggerFactory = logging.NewLoggerFactory(c.config.Logging)
	c.logger = c.loggerFactory.CreateLogger("saferestart")
}

// initRepositories initializes repositories
func (c *Container) initRepositories() {
	ctx := context.Background()
	cfg := c.config

	c.flagRepo = infraRepo.NewFileRestartFlagRepository(cfg.Flag.Path)

	c.adminRepo = infraRepo.NewExecAdminRepository(
		infraRepo.NewExecCommandRunner(),
		infraRepo.AdminCredentials{
			ExecutablePath: cfg.Admin.ExecutablePath,
			Username:       cfg.Admin.Username,
			Password:       cfg.Admin.Password,
		},
		c.loggerFactory.CreateLogger("admin"),
		infraRepo.WithSubsystemNames(cfg.Admin.AdminServerName, cfg.Admin.MainServerName),
		infraRepo.WithCommandTimeout(time.Duration(cfg.Admin.CommandTimeoutSec)*time.Second),
	)

	// History and metrics are reporting only; an unusable sink never blocks a restart
	c.historyRepo = infraRepo.NewNoOpRunHistoryRepository()
	if !cfg.History.Disabled {
		historyRepo, err := infraRepo.NewSQLiteRunHistoryRepository(cfg.History.DatabasePath)
		if err != nil {
			c.logger.Warn(ctx, "Run history unavailable, continuing without it",
				domain.NewField("error", err.Error()))
		} else {
			c.historyRepo = historyRepo
		}
	}

	c.metricsRepo = c.buildMetricsRepository(ctx)
	c.csvWriter = infraRepo.NewCSVWriterRepository(c.loggerFactory.CreateLogger("csv"))
}

func (c *Container) buildMetricsRepository(ctx context.Context) repository.MetricsRepository {
	cfg := c.config
	var sinks []repository.MetricsRepository

	if cfg.Prometheus.RemoteWriteURL != "" {
		promRepo, err := infraRepo.NewPrometheusMetricsRepository(cfg.Prometheus)
		if err != nil {
			c.logger.Warn(ctx, "Prometheus metrics disabled", domain.NewField("error", err.Error()))
		} else {
			sinks = append(sinks, promRepo)
		}
	}

	if cfg.CloudWatch.Enabled {
		cwRepo, err := infraRepo.NewCloudWatchMetricsRepository(cfg.CloudWatch, cfg.Prometheus.HostLabel)
		if err != nil {
			c.logger.Warn(ctx, "CloudWatch metrics disabled", domain.NewField("error", err.Error()))
		} else {
			sinks = append(sinks, cwRepo)
		}
	}

	switch len(sinks) {
	case 0:
		return infraRepo.NewNoOpMetricsRepository()
	case 1:
		return sinks[0]
	default:
		return infraRepo.NewCompositeMetricsRepository(sinks...)
	}
}

// initUseCases initializes use cases
func (c *Container) initUseCases() {
	cfg := c.config
	trackResources := !cfg.Admin.SkipResourceTracking

	c.drainController = impl.NewDrainController(c.adminRepo, c.loggerFactory.CreateLogger("drain"))
	c.closeOrchestrator = impl.NewCloseOrchestrator(
		c.adminRepo,
		c.drainController,
		cfg.Admin.ClosedMarker,
		trackResources,
		c.loggerFactory.CreateLogger("close"),
	)
	c.lifecycleManager = impl.NewServiceLifecycleManager(c.adminRepo, c.adminRepo, c.loggerFactory.CreateLogger("lifecycle"))

	c.stateMachine = impl.NewRestartStateMachine(
		c.flagRepo,
		c.adminRepo,
		c.drainController,
		c.closeOrchestrator,
		c.lifecycleManager,
		c.historyRepo,
		c.metricsRepo,
		impl.ConfirmSettings{
			PollInterval:   time.Duration(cfg.Confirm.PollIntervalSec) * time.Second,
			Timeout:        time.Duration(cfg.Confirm.TimeoutSec) * time.Second,
			ExpectReopened: cfg.Confirm.ExpectReopened,
			TrackResources: trackResources,
		},
		c.clock,
		c.loggerFactory.CreateLogger("restart"),
	)

	c.triggerService = impl.NewTriggerService(c.flagRepo, c.loggerFactory.CreateLogger("trigger"))
	c.historyService = impl.NewHistoryService(c.historyRepo, c.csvWriter, !cfg.History.Disabled, c.loggerFactory.CreateLogger("history"))
	c.statusService = impl.NewStatusService(c.configService, c.flagRepo, c.historyService, c.loggerFactory.CreateLogger("status"))
}

// initPresenters initializes presenters
func (c *Container) initPresenters() {
	c.consolePresenter = presenter.NewConsolePresenter()
	c.jsonPresenter = presenter.NewJSONPresenter()
}

// Close releases the history database and flushes metrics and log sinks
func (c *Container) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.metricsRepo != nil {
		record(c.metricsRepo.Close())
	}
	if c.historyRepo != nil {
		record(c.historyRepo.Close())
	}
	if c.loggerFactory != nil {
		record(c.loggerFactory.Shutdown())
	}
	return firstErr
}

// GetConfig returns the application configuration
func (c *Container) GetConfig() *config.AppConfig {
	return c.config
}

// GetConfigService returns the config service
func (c *Container) GetConfigService() usecase.ConfigService {
	return c.configService
}

// GetRestartStateMachine returns the restart state machine
func (c *Container) GetRestartStateMachine() usecase.RestartStateMachine {
	return c.stateMachine
}

// GetTriggerService returns the trigger service
func (c *Container) GetTriggerService() usecase.TriggerService {
	return c.triggerService
}

// GetStatusService returns the status service
func (c *Container) GetStatusService() usecase.StatusService {
	return c.statusService
}

// GetHistoryService returns the history service
func (c *Container) GetHistoryService() usecase.HistoryService {
	return c.historyService
}

// GetFlagLocation returns where the restart flag is stored
func (c *Container) GetFlagLocation() string {
	return c.config.Flag.Path
}

// GetConsolePresenter returns the console presenter
func (c *Container) GetConsolePresenter() presenter.ConsolePresenter {
	return c.consolePresenter
}

// GetJSONPresenter returns the JSON presenter
func (c *Container) GetJSONPresenter() presenter.JSONPresenter {
	return c.jsonPresenter
}
