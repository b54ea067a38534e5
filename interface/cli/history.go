package cli

import (
	"github.com/spf13/cobra"

	"github.com/ca-srg/saferestart/domain"
)

const defaultHistoryLimit = 20

func newHistoryCommand(newApp AppFactory, global *globalFlags) *cobra.Command {
	var (
		limit   int
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded restart runs",
		Long: `Show the most recent restart runs, newest first.

Use --csv to export the same runs to a CSV file instead.`,
		Example: `  saferestart history
  saferestart history --limit 5 --json
  saferestart history --limit 100 --csv runs.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(global.opts)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			svc := app.GetHistoryService()
			if !svc.Enabled() {
				return &ExitError{Code: domain.ExitFailure, Message: "run history is disabled in the configuration"}
			}

			ctx := cmd.Context()
			if csvPath != "" {
				count, err := svc.ExportCSV(ctx, limit, csvPath)
				if err != nil {
					return err
				}
				return app.GetConsolePresenter().PrintExported(count, csvPath)
			}

			runs, err := svc.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if global.jsonOut {
				return app.GetJSONPresenter().PrintHistory(runs)
			}
			return app.GetConsolePresenter().PrintHistory(runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "Maximum number of runs")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Export runs to this CSV file")

	return cmd
}
