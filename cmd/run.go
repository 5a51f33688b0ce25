package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/recurrent-payments/internal/jobs"
)

var asOfFlag string

var runCmd = &cobra.Command{
	Use:       "run <job>",
	Short:     "Run one recurrent payment job and exit",
	Long:      "Run one of: " + strings.Join(jobs.Names, ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: jobs.Names,
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf := time.Now().UTC()
		if asOfFlag != "" {
			day, err := time.ParseInLocation(time.DateOnly, asOfFlag, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid --as-of %q: %w", asOfFlag, err)
			}
			asOf = day
		}
		return runJob(cmd.Context(), args[0], asOf)
	},
}

func runJob(ctx context.Context, name string, asOf time.Time) error {
	app, err := newApp(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer app.Close()

	report, err := app.Jobs.Run(ctx, name, asOf)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d units, %d failed in %s\n", report.Job, report.Total, report.Failed, report.Duration)
	return nil
}

func init() {
	runCmd.Flags().StringVar(&asOfFlag, "as-of", "", "Business date as YYYY-MM-DD (defaults to today, UTC)")
}
