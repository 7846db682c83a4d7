package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bse-portfolio/internal/logging"
	"bse-portfolio/internal/quotes"
	"bse-portfolio/internal/scheduler"
)

// addWatchCommands adds the scheduled price-watch command.
func addWatchCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run scheduled price updates and alert evaluation",
		Long: `Run the price update and alert pass on a schedule until interrupted.

By default runs every schedule.interval_minutes from config, skipping
runs outside BSE market hours (09:15-15:30 IST, Mon-Fri). A daily run
at a fixed time can be added with --daily.`,
		Example: `  bsepf watch
  bsepf watch --interval 15
  bsepf watch --interval 30 --daily 15:35
  bsepf watch --once`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if app.Updater == nil {
				return errors.New("quote provider not configured")
			}

			interval, _ := cmd.Flags().GetInt("interval")
			if interval <= 0 {
				interval = app.Config.Schedule.IntervalMinutes
			}
			daily, _ := cmd.Flags().GetString("daily")
			once, _ := cmd.Flags().GetBool("once")
			always, _ := cmd.Flags().GetBool("always")
			marketHoursOnly := app.Config.Schedule.MarketHoursOnly && !always

			watchlist, err := quotes.LoadInstrumentsFile(app.Config.Quotes.InstrumentsFile)
			if err != nil {
				output.Warning("Could not read instruments file: %v", err)
			}

			job := func(ctx context.Context) {
				result, err := app.Updater.UpdateHoldings(ctx, watchlist)
				if err != nil {
					logger := logging.FromContext(ctx)
					logger.Error().Err(err).Msg("Scheduled price update failed")
					return
				}
				output.Printf("[%s] updated %d/%d", time.Now().Format("15:04:05"),
					result.Success, result.Total)
				output.Println()
				for _, ev := range result.Alerts {
					output.Warning("  🔔 %s", ev.Message)
				}
			}

			if once {
				ctx, cancel := app.context(10 * time.Minute)
				defer cancel()
				job(ctx)
				return nil
			}

			ctx, stop := signal.NotifyContext(
				logging.WithLogger(context.Background(), app.Logger),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sched := scheduler.New(ctx, marketHoursOnly)
			if _, err := sched.AddInterval(interval, job); err != nil {
				return err
			}
			if daily != "" {
				if _, err := sched.AddDaily(daily, job); err != nil {
					return err
				}
			}

			output.Info("Watching: every %d min (market hours only: %v). Ctrl-C to stop.",
				interval, marketHoursOnly)

			// Run immediately, then on schedule.
			job(ctx)
			sched.Start()
			<-ctx.Done()
			sched.Stop()
			output.Println()
			output.Info("Stopped")
			return nil
		},
	}

	cmd.Flags().Int("interval", 0, "minutes between updates (default from config)")
	cmd.Flags().String("daily", "", "also run daily at HH:MM IST")
	cmd.Flags().Bool("once", false, "run a single update and exit")
	cmd.Flags().Bool("always", false, "run outside market hours too")
	rootCmd.AddCommand(cmd)
}
