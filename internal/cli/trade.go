package cli

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/importer"
	"bse-portfolio/internal/logging"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/store"
	"bse-portfolio/pkg/utils"
)

const dateLayout = "2006-01-02"

// addTradeCommands adds ledger commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Record and inspect trades",
		Long:  "The trade ledger is append-only; holdings are rebuilt from it after every write.",
	}
	cmd.AddCommand(newTradeAddCmd(app, models.SideBuy))
	cmd.AddCommand(newTradeAddCmd(app, models.SideSell))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeImportCmd(app))
	rootCmd.AddCommand(cmd)
}

func newTradeAddCmd(app *App, side models.TradeSide) *cobra.Command {
	use, short := "buy <scrip-code> <quantity> <price>", "Record a buy trade"
	if side == models.SideSell {
		use, short = "sell <scrip-code> <quantity> <price>", "Record a sell trade"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Example: `  bsepf trade buy 500325 10 1450.50 --name "Reliance Industries"
  bsepf trade sell 500325 4 1600 --date 2024-02-10 --brokerage 20`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}

			scripCode := args[0]
			qty, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || qty <= 0 {
				output.Error("Invalid quantity: %s", args[1])
				return apperrors.NewValidationError("quantity", args[1], "must be a positive integer")
			}
			price, err := strconv.ParseFloat(args[2], 64)
			if err != nil || price <= 0 {
				output.Error("Invalid price: %s", args[2])
				return apperrors.NewValidationError("price", args[2], "must be a positive number")
			}

			dateStr, _ := cmd.Flags().GetString("date")
			tradeDate, err := time.Parse(dateLayout, dateStr)
			if err != nil {
				output.Error("Invalid date: %s (want YYYY-MM-DD)", dateStr)
				return apperrors.NewValidationError("date", dateStr, "want YYYY-MM-DD")
			}

			brokerage, _ := cmd.Flags().GetFloat64("brokerage")
			if brokerage < 0 {
				return apperrors.NewValidationError("brokerage", brokerage, "must not be negative")
			}
			name, _ := cmd.Flags().GetString("name")
			notes, _ := cmd.Flags().GetString("notes")
			force, _ := cmd.Flags().GetBool("force")

			if side == models.SideSell && !force {
				if err := app.Aggregator.ValidateSell(ctx, scripCode, qty); err != nil {
					output.Error("Sell rejected: %v", err)
					output.Dim("Use --force to append the trade anyway (replay clamps to held quantity)")
					return err
				}
			}

			trade := &models.Trade{
				TradeDate: tradeDate,
				ScripCode: scripCode,
				ScripName: name,
				Quantity:  qty,
				Price:     price,
				Side:      side,
				Brokerage: brokerage,
				Notes:     notes,
			}
			id, err := app.Store.AppendTrade(ctx, trade)
			if err != nil {
				output.Error("Failed to record trade: %v", err)
				return err
			}
			logging.LogTrade(app.Logger, scripCode, string(side), qty, price)

			pos, warnings, err := app.Aggregator.RebuildOne(ctx, scripCode)
			if err != nil {
				output.Error("Trade recorded but holdings rebuild failed: %v", err)
				return err
			}
			for _, w := range warnings {
				output.Warning("⚠ %s", w.String())
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"trade_id": id,
					"position": pos,
				})
			}

			sideText := output.Green("BUY")
			if side == models.SideSell {
				sideText = output.Red("SELL")
			}
			output.Success("✓ Trade #%d recorded", id)
			output.Printf("  %s %s x%s @ %s\n", sideText, scripCode,
				utils.FormatQuantity(qty), utils.FormatIndianCurrency(price))
			output.Printf("  Holding: %s shares, avg %s, invested %s\n",
				utils.FormatQuantity(pos.Quantity),
				utils.FormatIndianCurrency(pos.AvgBuyPrice),
				utils.FormatIndianCurrency(pos.TotalInvested))
			return nil
		},
	}

	cmd.Flags().String("date", time.Now().Format(dateLayout), "trade date (YYYY-MM-DD)")
	cmd.Flags().Float64P("brokerage", "b", 0, "brokerage and charges")
	cmd.Flags().StringP("name", "n", "", "company name")
	cmd.Flags().String("notes", "", "free-form notes")
	if side == models.SideSell {
		cmd.Flags().Bool("force", false, "skip the holdings check")
	}
	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades from the ledger",
		Example: `  bsepf trade list
  bsepf trade list --scrip 500325 --side SELL
  bsepf trade list --from 2024-01-01 --to 2024-03-31 --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}

			filter, err := tradeFilterFromFlags(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			trades, err := app.Store.ListTrades(ctx, filter)
			if err != nil {
				output.Error("Failed to list trades: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No trades found")
				return nil
			}

			output.Bold("Trades")
			output.Printf("  %d trades\n\n", len(trades))
			table := NewTable(output, "Date", "Scrip", "Name", "Side", "Qty", "Price", "Value", "Brokerage")
			for _, t := range trades {
				sideText := output.Green(string(t.Side))
				if t.Side == models.SideSell {
					sideText = output.Red(string(t.Side))
				}
				table.AddRow(
					t.TradeDate.Format(dateLayout),
					t.ScripCode,
					t.ScripName,
					sideText,
					utils.FormatQuantity(t.Quantity),
					utils.FormatIndianCurrency(t.Price),
					utils.FormatIndianCurrency(t.TotalValue),
					utils.FormatIndianCurrency(t.Brokerage),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("scrip", "", "filter by scrip code")
	cmd.Flags().String("side", "", "filter by side (BUY, SELL)")
	cmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Int("limit", 0, "maximum rows (0 for all)")
	cmd.Flags().Bool("desc", false, "newest first")
	return cmd
}

func tradeFilterFromFlags(cmd *cobra.Command) (store.TradeFilter, error) {
	var filter store.TradeFilter
	filter.ScripCode, _ = cmd.Flags().GetString("scrip")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	filter.Descending, _ = cmd.Flags().GetBool("desc")

	if side, _ := cmd.Flags().GetString("side"); side != "" {
		s := models.TradeSide(side)
		if !s.Valid() {
			return filter, apperrors.NewValidationError("side", side, "must be BUY or SELL")
		}
		filter.Side = s
	}
	if from, _ := cmd.Flags().GetString("from"); from != "" {
		d, err := time.Parse(dateLayout, from)
		if err != nil {
			return filter, apperrors.NewValidationError("from", from, "want YYYY-MM-DD")
		}
		filter.StartDate = d
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		d, err := time.Parse(dateLayout, to)
		if err != nil {
			return filter, apperrors.NewValidationError("to", to, "want YYYY-MM-DD")
		}
		filter.EndDate = d
	}
	return filter, nil
}

func newTradeImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import trades from a CSV file",
		Long: `Import trades from a broker contract-note CSV.

Common header variants are recognized (Date/Script/Qty/Rate/Type and
similar); malformed rows are skipped with a reason. Holdings are rebuilt
once after the import.`,
		Example: `  bsepf trade import contract_notes.csv`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(5 * time.Minute)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}

			im := importer.NewImporter(app.Store)
			summary, err := im.ImportFile(ctx, args[0])
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(summary)
			}

			output.Success("✓ Imported %d trades", summary.Imported)
			if summary.Skipped > 0 {
				output.Warning("Skipped %d rows:", summary.Skipped)
				for _, msg := range summary.Errors {
					output.Printf("  %s\n", msg)
				}
			}
			return nil
		},
	}
}
