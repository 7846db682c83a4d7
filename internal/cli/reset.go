package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

// addResetCommands adds the database reset command.
func addResetCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "reset [table]",
		Short: "Delete all data, or one table",
		Long: `Delete every row from the database, or from a single table.

Tables: trades, portfolio, price_history, corporate_actions,
alert_rules, alert_history.

This is irreversible and requires --yes.`,
		Example: `  bsepf reset --yes
  bsepf reset alert_history --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(time.Minute)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}

			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				output.Warning("This deletes data permanently. Re-run with --yes to confirm.")
				return nil
			}

			if len(args) == 1 {
				if err := app.Store.ResetTable(ctx, args[0]); err != nil {
					output.Error("Reset failed: %v", err)
					return err
				}
				output.Success("✓ Table %s cleared", args[0])
				return nil
			}

			if err := app.Store.Reset(ctx); err != nil {
				output.Error("Reset failed: %v", err)
				return err
			}
			output.Success("✓ Database cleared")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "confirm the reset")
	rootCmd.AddCommand(cmd)
}
