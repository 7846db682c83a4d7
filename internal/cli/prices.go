package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"bse-portfolio/internal/quotes"
	"bse-portfolio/pkg/utils"
)

// addPriceCommands adds quote and price-update commands.
func addPriceCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Fetch quotes and refresh portfolio valuations",
	}
	cmd.AddCommand(newPricesUpdateCmd(app))
	cmd.AddCommand(newPricesQuoteCmd(app))
	cmd.AddCommand(newPricesHistoryCmd(app))
	rootCmd.AddCommand(cmd)
}

func newPricesUpdateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "update [scrip-code...]",
		Short: "Refresh prices for all holdings and evaluate alerts",
		Long: `Fetch the latest price for every held instrument (plus the watchlist
from the instruments file and any codes given as arguments), record the
day's price bar, revalue the portfolio in one transaction, and run the
alert pass against the new prices.

Quote failures are per instrument and never abort the batch.`,
		Example: `  bsepf prices update
  bsepf prices update 500325 532540`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(10 * time.Minute)
			defer cancel()

			if app.Updater == nil {
				return errors.New("quote provider not configured")
			}

			extra := append([]string{}, args...)
			watchlist, err := quotes.LoadInstrumentsFile(app.Config.Quotes.InstrumentsFile)
			if err != nil {
				output.Warning("Could not read instruments file: %v", err)
			}
			extra = append(extra, watchlist...)

			result, err := app.Updater.UpdateHoldings(ctx, extra)
			if err != nil {
				output.Error("Price update failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Success("✓ Updated %d/%d instruments", result.Success, result.Total)
			for _, scrip := range result.Failed {
				output.Warning("  %s: quote unavailable", scrip)
			}
			if len(result.Alerts) > 0 {
				output.Println()
				output.Bold("Alerts Triggered")
				for _, ev := range result.Alerts {
					output.Printf("  🔔 %s\n", ev.Message)
				}
			}
			return nil
		},
	}
}

func newPricesQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "quote <scrip-code>",
		Short:   "Fetch one quote without touching the portfolio",
		Example: `  bsepf prices quote 500325`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(time.Minute)
			defer cancel()

			if app.Provider == nil {
				return errors.New("quote provider not configured")
			}

			quote, err := app.Provider.GetQuote(ctx, args[0])
			if err != nil {
				output.Error("Quote failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(quote)
			}

			title := quote.ScripCode
			if quote.CompanyName != "" {
				title += " — " + quote.CompanyName
			}
			output.Bold("%s", title)
			output.Printf("  LTP:        %s (%s)\n",
				utils.FormatIndianCurrency(quote.CurrentPrice), output.FormatPercent(quote.ChangePercent))
			if quote.Open > 0 {
				output.Printf("  O/H/L:      %s / %s / %s\n",
					utils.FormatIndianCurrency(quote.Open),
					utils.FormatIndianCurrency(quote.High),
					utils.FormatIndianCurrency(quote.Low))
			}
			if quote.PrevClose > 0 {
				output.Printf("  Prev Close: %s\n", utils.FormatIndianCurrency(quote.PrevClose))
			}
			if quote.Volume > 0 {
				output.Printf("  Volume:     %s\n", utils.FormatQuantity(quote.Volume))
			}
			output.Dim("  Source: %s", app.Provider.Name())
			return nil
		},
	}
}

func newPricesHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history <scrip-code>",
		Short:   "Show recorded daily price bars",
		Example: `  bsepf prices history 500325 --limit 10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			limit, _ := cmd.Flags().GetInt("limit")

			bars, err := app.Store.ListPriceBars(ctx, args[0], limit)
			if err != nil {
				output.Error("Failed to list price history: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(bars)
			}
			if len(bars) == 0 {
				output.Info("No price history for %s", args[0])
				return nil
			}

			output.Bold("Price History: %s", args[0])
			table := NewTable(output, "Date", "Open", "High", "Low", "Close", "Volume")
			for _, bar := range bars {
				table.AddRow(
					bar.Date.Format(dateLayout),
					utils.FormatIndianCurrency(bar.Open),
					utils.FormatIndianCurrency(bar.High),
					utils.FormatIndianCurrency(bar.Low),
					utils.FormatIndianCurrency(bar.Close),
					utils.FormatQuantity(bar.Volume),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Int("limit", 30, "maximum rows")
	return cmd
}
