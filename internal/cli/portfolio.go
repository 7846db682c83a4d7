package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/store"
	"bse-portfolio/pkg/utils"
)

// addPortfolioCommands adds holdings and valuation commands.
func addPortfolioCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Holdings, valuation and P&L",
	}
	cmd.AddCommand(newPortfolioShowCmd(app))
	cmd.AddCommand(newPortfolioRebuildCmd(app))
	cmd.AddCommand(newPortfolioDetailCmd(app))
	rootCmd.AddCommand(cmd)
}

func newPortfolioShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Portfolio dashboard: summary, holdings and recent trades",
		Example: `  bsepf portfolio show
  bsepf portfolio show --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}

			summary, err := app.Valuator.Summary(ctx)
			if err != nil {
				output.Error("Failed to build summary: %v", err)
				return err
			}
			positions, err := app.Store.ListPositions(ctx, true)
			if err != nil {
				output.Error("Failed to list positions: %v", err)
				return err
			}
			recent, err := app.Store.ListTrades(ctx, store.TradeFilter{Descending: true, Limit: 5})
			if err != nil {
				output.Error("Failed to list trades: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"summary":       summary,
					"holdings":      positions,
					"recent_trades": recent,
				})
			}

			displaySummary(output, summary)
			if len(positions) == 0 {
				output.Info("No holdings. Record trades with 'bsepf trade buy'.")
				return nil
			}
			output.Println()
			displayHoldings(output, positions)
			if len(recent) > 0 {
				output.Println()
				displayRecentTrades(output, recent)
			}
			return nil
		},
	}
}

func displaySummary(output *Output, summary *models.PortfolioSummary) {
	output.Bold("Portfolio Summary")
	output.Printf("  Stocks Held:    %d\n", summary.TotalStocks)
	output.Printf("  Invested:       %s\n", utils.FormatIndianCurrency(summary.TotalInvested))
	output.Printf("  Current Value:  %s\n", utils.FormatIndianCurrency(summary.CurrentValue))
	output.Printf("  Unrealized P&L: %s (%s)\n",
		output.FormatPnL(summary.TotalPnL), output.FormatPercent(summary.TotalPnLPercent))
	output.Printf("  Realized P&L:   %s\n", output.FormatPnL(summary.TotalRealizedPnL))
	output.Printf("  Gainers/Losers: %d / %d (%d flat)\n",
		summary.Gainers, summary.Losers, summary.Neutral)
	if summary.BestPerformer != nil {
		output.Printf("  Best:           %s %s\n",
			summary.BestPerformer.ScripCode, output.FormatPercent(summary.BestPerformer.PnLPercent))
	}
	if summary.WorstPerformer != nil {
		output.Printf("  Worst:          %s %s\n",
			summary.WorstPerformer.ScripCode, output.FormatPercent(summary.WorstPerformer.PnLPercent))
	}
}

func displayHoldings(output *Output, positions []models.Position) {
	output.Bold("Holdings")
	table := NewTable(output, "Scrip", "Name", "Qty", "Avg", "LTP", "Invested", "Current", "P&L", "P&L %")
	for _, p := range positions {
		ltp := "-"
		current := "-"
		if p.CurrentPrice > 0 {
			ltp = utils.FormatIndianCurrency(p.CurrentPrice)
			current = utils.FormatIndianCurrency(p.CurrentValue)
		}
		table.AddRow(
			p.ScripCode,
			p.ScripName,
			utils.FormatQuantity(p.Quantity),
			utils.FormatIndianCurrency(p.AvgBuyPrice),
			ltp,
			utils.FormatIndianCurrency(p.TotalInvested),
			current,
			output.FormatPnL(p.ProfitLoss),
			output.FormatPercent(p.ProfitLossPercent),
		)
	}
	table.Render()
}

func displayRecentTrades(output *Output, trades []models.Trade) {
	output.Bold("Recent Trades")
	for _, t := range trades {
		sideText := output.Green(string(t.Side))
		if t.Side == models.SideSell {
			sideText = output.Red(string(t.Side))
		}
		output.Printf("  %s  %s %s x%s @ %s\n",
			t.TradeDate.Format(dateLayout), sideText, t.ScripCode,
			utils.FormatQuantity(t.Quantity), utils.FormatIndianCurrency(t.Price))
	}
}

func newPortfolioRebuildCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild all holdings from the trade ledger",
		Long: `Replay the full trade ledger and recompute every position.

Holdings are rebuilt automatically after each trade write; this command
exists for recovery after a manual database edit or an interrupted import.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(2 * time.Minute)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}

			positions, warnings, err := app.Aggregator.Rebuild(ctx)
			if err != nil {
				output.Error("Rebuild failed: %v", err)
				return err
			}
			for _, w := range warnings {
				output.Warning("⚠ %s", w.String())
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"positions": positions,
					"warnings":  len(warnings),
				})
			}
			output.Success("✓ Rebuilt %d positions from the ledger", len(positions))
			return nil
		},
	}
}

func newPortfolioDetailCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <scrip-code>",
		Short: "Per-instrument holding, trades and realized P&L",
		Example: `  bsepf portfolio detail 500325`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			scripCode := args[0]

			pos, err := app.Store.GetPosition(ctx, scripCode)
			if err != nil {
				output.Error("Failed to load position: %v", err)
				return err
			}
			if pos == nil {
				output.Error("No position for %s", scripCode)
				return fmt.Errorf("%s: %w", scripCode, apperrors.ErrScripNotFound)
			}

			trades, err := app.Store.ListTrades(ctx, store.TradeFilter{ScripCode: scripCode})
			if err != nil {
				output.Error("Failed to list trades: %v", err)
				return err
			}
			realized, err := app.Valuator.RealizedPnL(ctx, scripCode)
			if err != nil {
				output.Error("Failed to compute realized P&L: %v", err)
				return err
			}
			actions, err := app.Store.ListCorporateActions(ctx, store.ActionFilter{ScripCode: scripCode})
			if err != nil {
				output.Error("Failed to list corporate actions: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"position":          pos,
					"trades":            trades,
					"realized":          realized,
					"corporate_actions": actions,
				})
			}

			displayDetail(output, pos, trades, realized, actions)
			return nil
		},
	}
}

func displayDetail(output *Output, pos *models.Position, trades []models.Trade,
	realized []models.RealizedTrade, actions []models.CorporateAction) {

	title := pos.ScripCode
	if pos.ScripName != "" {
		title += " — " + pos.ScripName
	}
	output.Bold("%s", title)

	var buys, sells int
	for _, t := range trades {
		if t.Side == models.SideBuy {
			buys++
		} else {
			sells++
		}
	}
	output.Printf("  Trades:         %d (%d buys, %d sells)\n", len(trades), buys, sells)
	output.Printf("  Holding:        %s shares\n", utils.FormatQuantity(pos.Quantity))
	output.Printf("  Avg Buy Price:  %s\n", utils.FormatIndianCurrency(pos.AvgBuyPrice))
	output.Printf("  Invested:       %s\n", utils.FormatIndianCurrency(pos.TotalInvested))
	if pos.CurrentPrice > 0 {
		output.Printf("  Current Price:  %s\n", utils.FormatIndianCurrency(pos.CurrentPrice))
		output.Printf("  Current Value:  %s\n", utils.FormatIndianCurrency(pos.CurrentValue))
		output.Printf("  Unrealized P&L: %s (%s)\n",
			output.FormatPnL(pos.ProfitLoss), output.FormatPercent(pos.ProfitLossPercent))
	}

	if len(realized) > 0 {
		var total float64
		for _, r := range realized {
			total += r.RealizedPnL
		}
		output.Println()
		output.Bold("Realized P&L: %s", output.FormatPnL(total))
		table := NewTable(output, "Date", "Qty", "Avg Buy", "Sell", "P&L", "P&L %")
		for _, r := range realized {
			table.AddRow(
				r.TradeDate.Format(dateLayout),
				utils.FormatQuantity(r.Quantity),
				utils.FormatIndianCurrency(r.AvgBuyPrice),
				utils.FormatIndianCurrency(r.SellPrice),
				output.FormatPnL(r.RealizedPnL),
				output.FormatPercent(r.PnLPercent),
			)
		}
		table.Render()
	}

	if len(actions) > 0 {
		output.Println()
		output.Bold("Corporate Actions")
		for _, a := range actions {
			detail := a.Ratio
			if a.Type == models.ActionDividend {
				detail = utils.FormatIndianCurrency(a.Amount)
			}
			output.Printf("  %s  %-8s %s\n", a.ActionDate.Format(dateLayout), a.Type, detail)
		}
	}
}
