package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/infrastructure/config"
	"github.com/ca-srg/saferestart/interface/presenter"
	usecase "github.com/ca-srg/saferestart/usecase/interface"
)

// Options are the global flags that shape how the application is built
type Options struct {
	ConfigPath string
	Debug      bool
}

// App exposes the services the commands drive
type App interface {
	GetConfig() *config.AppConfig
	GetConfigService() usecase.ConfigService
	GetRestartStateMachine() usecase.RestartStateMachine
	GetTriggerService() usecase.TriggerService
	GetStatusService() usecase.StatusService
	GetHistoryService() usecase.HistoryService
	GetFlagLocation() string
	GetConsolePresenter() presenter.ConsolePresenter
	GetJSONPresenter() presenter.JSONPresenter
	Close() error
}

// AppFactory builds the application for one invocation
type AppFactory func(opts Options) (App, error)

type globalFlags struct {
	opts    Options
	jsonOut bool
}

// NewRootCommand creates the root command. Without flags it runs one restart
// check; --trigger and --status replace the run.
func NewRootCommand(version string, newApp AppFactory) *cobra.Command {
	var (
		global  globalFlags
		trigger bool
		status  bool
		reason  string
	)

	cmd := &cobra.Command{
		Use:   "saferestart",
		Short: "Drain and restart the database server when a restart is pending",
		Long: `saferestart performs a safe restart of the database server when a restart
has been requested. It refuses to proceed while clients are connected, closes
every open database, stops and starts the server and waits until it is quiet
again before clearing the request.

Schedule 'saferestart' periodically and request a restart with
'saferestart --trigger --reason "..."'.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("reason") && !trigger {
				return &ExitError{Code: domain.ExitFailure, Message: "--reason requires --trigger"}
			}

			app, err := newApp(global.opts)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			ctx := cmd.Context()
			switch {
			case trigger:
				return runTrigger(ctx, app, reason)
			case status:
				return runStatus(ctx, app, global.jsonOut)
			default:
				return runRestart(ctx, app, global.jsonOut)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&global.opts.ConfigPath, "config", "", "Path to config file (default: ~/.config/saferestart/config.json)")
	cmd.PersistentFlags().BoolVar(&global.opts.Debug, "debug", false, "Enable debug logging to stdout")
	cmd.PersistentFlags().BoolVar(&global.jsonOut, "json", false, "Output in JSON format")

	cmd.Flags().BoolVar(&trigger, "trigger", false, "Request a restart on the next run")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with --trigger")
	cmd.Flags().BoolVar(&status, "status", false, "Show the pending request, last run and configuration")
	cmd.MarkFlagsMutuallyExclusive("trigger", "status")

	cmd.AddCommand(newHistoryCommand(newApp, &global))
	cmd.AddCommand(newConfigCommand(newApp, &global))

	return cmd
}

func runRestart(ctx context.Context, app App, jsonOut bool) error {
	if err := app.GetConfig().ValidateForRun(); err != nil {
		return &ExitError{Code: domain.ExitConfigError, Message: "invalid configuration", Cause: err}
	}

	outcome := app.GetRestartStateMachine().Run(ctx)

	var err error
	if jsonOut {
		err = app.GetJSONPresenter().PrintOutcome(outcome)
	} else {
		err = app.GetConsolePresenter().PrintOutcome(outcome)
	}
	if err != nil {
		return err
	}

	if code := outcome.ExitCode(); code != domain.ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

func runTrigger(ctx context.Context, app App, reason string) error {
	if err := app.GetTriggerService().Trigger(ctx, reason); err != nil {
		return err
	}
	return app.GetConsolePresenter().PrintTriggered(app.GetFlagLocation(), strings.TrimSpace(reason))
}

func runStatus(ctx context.Context, app App, jsonOut bool) error {
	status, err := app.GetStatusService().GetStatus(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return app.GetJSONPresenter().PrintStatus(status)
	}
	return app.GetConsolePresenter().PrintStatus(status)
}
