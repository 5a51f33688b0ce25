package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/recurrent-payments/internal/jobs"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the recurrent payment scheduler",
	Long:  `Run every recurrent payment job on a fixed interval until stopped`,
	Run: func(cmd *cobra.Command, args []string) {
		startWorker()
	},
}

var tickInterval time.Duration

func startWorker() {
	app, err := newApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	interval := app.Config.Recurrent.TickInterval
	if tickInterval > 0 {
		interval = tickInterval
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.Logger.Info("recurrent payment worker started",
		"tick_interval", interval,
		"max_workers", app.Config.Recurrent.MaxWorkers,
		"page_size", app.Config.Recurrent.PageSize)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runAll(ctx, app)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runAll(ctx, app)
			}
		}
	}()

	<-ctx.Done()
	app.Logger.Info("received signal, shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		app.Logger.Warn("shutdown timeout reached, forcing exit")
	}
	app.Close()
	app.Logger.Info("worker shutdown complete")
}

// runAll runs one tick. A failing job does not stop the ones after it.
func runAll(ctx context.Context, app *App) {
	asOf := time.Now().UTC()
	for _, name := range jobs.Names {
		if ctx.Err() != nil {
			return
		}
		if _, err := app.Jobs.Run(ctx, name, asOf); err != nil {
			app.Logger.Error("job failed", "job", name, "error", err)
		}
	}
}

func init() {
	workerCmd.Flags().DurationVar(&tickInterval, "tick-interval", 0, "Interval between job rounds (overrides config)")
}
