package cli

import (
	"github.com/spf13/cobra"
)

func newConfigCommand(newApp AppFactory, global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a configuration template",
		Long: `Write a configuration template to the config path. An existing file is
never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(global.opts)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			svc := app.GetConfigService()
			if err := svc.CreateDefaultConfig(); err != nil {
				return err
			}
			return app.GetConsolePresenter().PrintConfigCreated(svc.GetConfigPath())
		},
	})

	return cmd
}
