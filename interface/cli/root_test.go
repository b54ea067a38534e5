package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/domain/entity"
	"github.com/ca-srg/saferestart/infrastructure/config"
	"github.com/ca-srg/saferestart/interface/presenter"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

type fakeStateMachine struct {
	outcome *entity.RestartOutcome
	runs    int
}

func (f *fakeStateMachine) Run(ctx context.Context) *entity.RestartOutcome {
	f.runs++
	return f.outcome
}

type fakeTrigger struct {
	reasons []string
	err     error
}

func (f *fakeTrigger) Trigger(ctx context.Context, reason string) error {
	f.reasons = append(f.reasons, reason)
	return f.err
}

type fakeStatus struct {
	info *usecase.StatusInfo
	err  error
}

func (f *fakeStatus) GetStatus(ctx context.Context) (*usecase.StatusInfo, error) {
	return f.info, f.err
}

type fakeHistory struct {
	enabled    bool
	runs       []*entity.RunRecord
	limits     []int
	exportPath string
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]*entity.RunRecord, error) {
	f.limits = append(f.limits, limit)
	return f.runs, nil
}

func (f *fakeHistory) ExportCSV(ctx context.Context, limit int, path string) (int, error) {
	f.limits = append(f.limits, limit)
	f.exportPath = path
	return len(f.runs), nil
}

func (f *fakeHistory) Enabled() bool { return f.enabled }

type fakeConfigService struct {
	cfg       *config.AppConfig
	createErr error
	created   int
}

func (f *fakeConfigService) GetConfig() *config.AppConfig { return f.cfg }
func (f *fakeConfigService) GetConfigWithSources() (*config.AppConfig, config.ConfigSourceMap) {
	return f.cfg, f.cfg.ConfigSources
}
func (f *fakeConfigService) GetConfigPath() string                { return "/tmp/saferestart/config.json" }
func (f *fakeConfigService) ExportConfig() map[string]interface{} { return map[string]interface{}{} }
func (f *fakeConfigService) ReloadConfig() error                  { return nil }
func (f *fakeConfigService) CreateDefaultConfig() error {
	f.created++
	return f.createErr
}

// recordingPresenter implements both presenters and records what was printed
type recordingPresenter struct {
	printed []string
}

func (p *recordingPresenter) PrintVersion(version string) { p.printed = append(p.printed, "version") }
func (p *recordingPresenter) PrintError(err error)        { p.printed = append(p.printed, "error") }
func (p *recordingPresenter) PrintOutcome(outcome *entity.RestartOutcome) error {
	p.printed = append(p.printed, "outcome:"+string(outcome.Kind))
	return nil
}
func (p *recordingPresenter) PrintTriggered(location, reason string) error {
	p.printed = append(p.printed, "triggered:"+reason)
	return nil
}
func (p *recordingPresenter) PrintStatus(status *usecase.StatusInfo) error {
	p.printed = append(p.printed, "status")
	return nil
}
func (p *recordingPresenter) PrintHistory(runs []*entity.RunRecord) error {
	p.printed = append(p.printed, "history")
	return nil
}
func (p *recordingPresenter) PrintExported(count int, path string) error {
	p.printed = append(p.printed, "exported:"+path)
	return nil
}
func (p *recordingPresenter) PrintConfigCreated(path string) error {
	p.printed = append(p.printed, "created")
	return nil
}

type fakeApp struct {
	cfg          *config.AppConfig
	configSvc    *fakeConfigService
	stateMachine *fakeStateMachine
	trigger      *fakeTrigger
	status       *fakeStatus
	history      *fakeHistory
	console      *recordingPresenter
	json         *recordingPresenter
	closed       int
}

func newFakeApp() *fakeApp {
	cfg := config.DefaultConfig()
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "s3cret"
	return &fakeApp{
		cfg:          cfg,
		configSvc:    &fakeConfigService{cfg: cfg},
		stateMachine: &fakeStateMachine{outcome: &entity.RestartOutcome{Kind: entity.OutcomeAbortedNothingToDo}},
		trigger:      &fakeTrigger{},
		status:       &fakeStatus{info: &usecase.StatusInfo{}},
		history:      &fakeHistory{enabled: true},
		console:      &recordingPresenter{},
		json:         &recordingPresenter{},
	}
}

func (a *fakeApp) GetConfig() *config.AppConfig                        { return a.cfg }
func (a *fakeApp) GetConfigService() usecase.ConfigService             { return a.configSvc }
func (a *fakeApp) GetRestartStateMachine() usecase.RestartStateMachine { return a.stateMachine }
func (a *fakeApp) GetTriggerService() usecase.TriggerService           { return a.trigger }
func (a *fakeApp) GetStatusService() usecase.StatusService             { return a.status }
func (a *fakeApp) GetHistoryService() usecase.HistoryService           { return a.history }
func (a *fakeApp) GetFlagLocation() string                             { return "/var/tmp/saferestart/restart.pending" }
func (a *fakeApp) GetConsolePresenter() presenter.ConsolePresenter     { return a.console }
func (a *fakeApp) GetJSONPresenter() presenter.JSONPresenter           { return a.json }
func (a *fakeApp) Close() error {
	a.closed++
	return nil
}

func execute(t *testing.T, app *fakeApp, args ...string) (Options, error) {
	t.Helper()
	var got Options
	cmd := NewRootCommand("1.2.3", func(opts Options) (App, error) {
		got = opts
		return app, nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return got, cmd.ExecuteContext(context.Background())
}

func TestRootCommand_Run(t *testing.T) {
	tests := []struct {
		name     string
		kind     entity.OutcomeKind
		status   int
		wantCode int
	}{
		{name: "nothing to do", kind: entity.OutcomeAbortedNothingToDo, wantCode: domain.ExitOK},
		{name: "completed", kind: entity.OutcomeCompleted, wantCode: domain.ExitOK},
		{name: "clients connected", kind: entity.OutcomeAbortedClientsConnected, wantCode: domain.ExitTempFail},
		{name: "failed step status", kind: entity.OutcomeFailedAtStep, status: 10502, wantCode: 10502},
		{name: "confirm timeout", kind: entity.OutcomeFailedAtStep, status: domain.ExitTimeout, wantCode: domain.ExitTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newFakeApp()
			app.stateMachine.outcome = &entity.RestartOutcome{Kind: tt.kind, ExitStatus: tt.status}

			_, err := execute(t, app)

			assert.Equal(t, tt.wantCode, ExitCode(err))
			assert.Equal(t, 1, app.stateMachine.runs)
			assert.Equal(t, []string{"outcome:" + string(tt.kind)}, app.console.printed)
			assert.Equal(t, 1, app.closed)
		})
	}
}

func TestRootCommand_RunJSON(t *testing.T) {
	app := newFakeApp()

	_, err := execute(t, app, "--json")

	require.NoError(t, err)
	assert.Empty(t, app.console.printed)
	assert.Equal(t, []string{"outcome:aborted_nothing_to_do"}, app.json.printed)
}

func TestRootCommand_RunRequiresCredentials(t *testing.T) {
	app := newFakeApp()
	app.cfg.Admin.Password = ""

	_, err := execute(t, app)

	assert.Equal(t, domain.ExitConfigError, ExitCode(err))
	assert.Zero(t, app.stateMachine.runs)
}

func TestRootCommand_GlobalOptions(t *testing.T) {
	opts, err := execute(t, newFakeApp(), "--config", "/etc/saferestart.json", "--debug")

	require.NoError(t, err)
	assert.Equal(t, Options{ConfigPath: "/etc/saferestart.json", Debug: true}, opts)
}

func TestRootCommand_Trigger(t *testing.T) {
	app := newFakeApp()

	_, err := execute(t, app, "--trigger", "--reason", "  certificate rotated  ")

	require.NoError(t, err)
	assert.Equal(t, []string{"  certificate rotated  "}, app.trigger.reasons)
	assert.Equal(t, []string{"triggered:certificate rotated"}, app.console.printed)
	assert.Zero(t, app.stateMachine.runs)
}

func TestRootCommand_TriggerFlagStoreError(t *testing.T) {
	app := newFakeApp()
	app.trigger.err = domain.ErrFlagStoreIO("set pending", "/var/tmp/x", errors.New("read-only file system"))

	_, err := execute(t, app, "--trigger")

	assert.Equal(t, domain.ExitIOError, ExitCode(err))
	assert.Empty(t, app.console.printed)
}

func TestRootCommand_ReasonWithoutTrigger(t *testing.T) {
	app := newFakeApp()

	_, err := execute(t, app, "--reason", "why")

	require.Error(t, err)
	assert.Equal(t, domain.ExitFailure, ExitCode(err))
	assert.Zero(t, app.stateMachine.runs)
}

func TestRootCommand_TriggerAndStatusExclusive(t *testing.T) {
	app := newFakeApp()

	_, err := execute(t, app, "--trigger", "--status")

	require.Error(t, err)
	assert.Empty(t, app.trigger.reasons)
}

func TestRootCommand_Status(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		app := newFakeApp()
		_, err := execute(t, app, "--status")
		require.NoError(t, err)
		assert.Equal(t, []string{"status"}, app.console.printed)
	})

	t.Run("json", func(t *testing.T) {
		app := newFakeApp()
		_, err := execute(t, app, "--status", "--json")
		require.NoError(t, err)
		assert.Equal(t, []string{"status"}, app.json.printed)
	})

	t.Run("flag store error", func(t *testing.T) {
		app := newFakeApp()
		app.status.err = domain.ErrFlagStoreIO("read", "/var/tmp/x", errors.New("permission denied"))
		_, err := execute(t, app, "--status")
		assert.Equal(t, domain.ExitIOError, ExitCode(err))
	})
}

func TestRootCommand_FactoryError(t *testing.T) {
	cmd := NewRootCommand("1.2.3", func(opts Options) (App, error) {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInvalidInput, "invalid configuration", errors.New("bad json"))
	})
	cmd.SetArgs([]string{"--status"})

	err := cmd.ExecuteContext(context.Background())

	assert.Equal(t, domain.ExitConfigError, ExitCode(err))
}

func TestHistoryCommand(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		app := newFakeApp()
		_, err := execute(t, app, "history")
		require.NoError(t, err)
		assert.Equal(t, []int{defaultHistoryLimit}, app.history.limits)
		assert.Equal(t, []string{"history"}, app.console.printed)
	})

	t.Run("json with limit", func(t *testing.T) {
		app := newFakeApp()
		_, err := execute(t, app, "history", "--limit", "3", "--json")
		require.NoError(t, err)
		assert.Equal(t, []int{3}, app.history.limits)
		assert.Equal(t, []string{"history"}, app.json.printed)
	})

	t.Run("csv export", func(t *testing.T) {
		app := newFakeApp()
		_, err := execute(t, app, "history", "--csv", "runs.csv")
		require.NoError(t, err)
		assert.Equal(t, "runs.csv", app.history.exportPath)
		assert.Equal(t, []string{"exported:runs.csv"}, app.console.printed)
	})

	t.Run("disabled", func(t *testing.T) {
		app := newFakeApp()
		app.history.enabled = false
		_, err := execute(t, app, "history")
		assert.Equal(t, domain.ExitFailure, ExitCode(err))
		assert.Empty(t, app.history.limits)
	})
}

func TestConfigInitCommand(t *testing.T) {
	app := newFakeApp()

	_, err := execute(t, app, "config", "init")

	require.NoError(t, err)
	assert.Equal(t, 1, app.configSvc.created)
	assert.Equal(t, []string{"created"}, app.console.printed)

	app.configSvc.createErr = errors.New("config file already exists")
	_, err = execute(t, app, "config", "init")
	assert.Equal(t, domain.ExitFailure, ExitCode(err))
}

func TestHandleExitError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantOutput string
	}{
		{name: "nil", err: nil, wantCode: domain.ExitOK},
		{name: "silent status", err: &ExitError{Code: domain.ExitTempFail}, wantCode: domain.ExitTempFail},
		{
			name:       "message",
			err:        &ExitError{Code: domain.ExitConfigError, Message: "invalid configuration", Cause: errors.New("admin username and password are required")},
			wantCode:   domain.ExitConfigError,
			wantOutput: "Error: invalid configuration: admin username and password are required\n",
		},
		{
			name:       "domain error",
			err:        domain.ErrConfirmTimeout(1, 0, 0, nil),
			wantCode:   domain.ExitTimeout,
			wantOutput: "Error: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := HandleExitError(&buf, tt.err)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantOutput == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tt.wantOutput)
			}
		})
	}
}
