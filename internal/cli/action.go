package cli

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/store"
	"bse-portfolio/pkg/utils"
)

// addActionCommands adds corporate action commands.
func addActionCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Apply corporate actions to holdings",
		Long: `Record dividends and apply bonus issues or stock splits.

Dividends are audit-only; bonus and split rewrite the held quantity and
cost basis atomically with the audit record. All actions require a held
position.`,
	}
	cmd.AddCommand(newActionDividendCmd(app))
	cmd.AddCommand(newActionRatioCmd(app, models.ActionBonus))
	cmd.AddCommand(newActionRatioCmd(app, models.ActionSplit))
	cmd.AddCommand(newActionListCmd(app))
	rootCmd.AddCommand(cmd)
}

func actionDateFromFlags(cmd *cobra.Command) (time.Time, error) {
	dateStr, _ := cmd.Flags().GetString("date")
	d, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date", dateStr, "want YYYY-MM-DD")
	}
	return d, nil
}

func newActionDividendCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dividend <scrip-code> <amount-per-share>",
		Short:   "Record a dividend receipt",
		Example: `  bsepf action dividend 500325 8.50 --date 2024-03-15`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			perShare, err := strconv.ParseFloat(args[1], 64)
			if err != nil || perShare <= 0 {
				output.Error("Invalid amount: %s", args[1])
				return apperrors.NewValidationError("amount", args[1], "must be a positive number")
			}
			actionDate, err := actionDateFromFlags(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			notes, _ := cmd.Flags().GetString("notes")

			action, err := app.Adjuster.RecordDividend(ctx, args[0], actionDate, perShare, notes)
			if err != nil {
				output.Error("Failed to record dividend: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(action)
			}
			output.Success("✓ Dividend recorded for %s", action.ScripCode)
			output.Printf("  %s per share x %s shares = %s\n",
				utils.FormatIndianCurrency(perShare),
				utils.FormatQuantity(action.Quantity),
				utils.FormatIndianCurrency(action.Amount))
			return nil
		},
	}
	cmd.Flags().String("date", time.Now().Format(dateLayout), "ex-date (YYYY-MM-DD)")
	cmd.Flags().String("notes", "", "free-form notes")
	return cmd
}

func newActionRatioCmd(app *App, actionType models.ActionType) *cobra.Command {
	use := "bonus <scrip-code> <ratio>"
	short := "Apply a bonus issue (ratio b:h = b free shares per h held)"
	example := `  bsepf action bonus 500325 1:2`
	if actionType == models.ActionSplit {
		use = "split <scrip-code> <ratio>"
		short = "Apply a stock split (ratio o:n = o old shares become n new)"
		example = `  bsepf action split 500325 1:2
  bsepf action split 532540 5:1   (reverse split)`
	}

	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Example: example,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			actionDate, err := actionDateFromFlags(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			notes, _ := cmd.Flags().GetString("notes")

			var pos *models.Position
			if actionType == models.ActionBonus {
				pos, err = app.Adjuster.ApplyBonus(ctx, args[0], actionDate, args[1], notes)
			} else {
				pos, err = app.Adjuster.ApplySplit(ctx, args[0], actionDate, args[1], notes)
			}
			if err != nil {
				output.Error("Failed to apply %s: %v", actionType, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(pos)
			}
			output.Success("✓ %s %s applied to %s", actionType, args[1], pos.ScripCode)
			output.Printf("  Holding now %s shares, avg %s, invested %s\n",
				utils.FormatQuantity(pos.Quantity),
				utils.FormatIndianCurrency(pos.AvgBuyPrice),
				utils.FormatIndianCurrency(pos.TotalInvested))
			return nil
		},
	}
	cmd.Flags().String("date", time.Now().Format(dateLayout), "ex-date (YYYY-MM-DD)")
	cmd.Flags().String("notes", "", "free-form notes")
	return cmd
}

func newActionListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded corporate actions",
		Example: `  bsepf action list
  bsepf action list --scrip 500325 --type DIVIDEND`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}

			var filter store.ActionFilter
			filter.ScripCode, _ = cmd.Flags().GetString("scrip")
			if typeStr, _ := cmd.Flags().GetString("type"); typeStr != "" {
				t := models.ActionType(typeStr)
				if !t.Valid() {
					return apperrors.NewValidationError("type", typeStr, "must be DIVIDEND, BONUS or SPLIT")
				}
				filter.Type = t
			}

			actions, err := app.Store.ListCorporateActions(ctx, filter)
			if err != nil {
				output.Error("Failed to list corporate actions: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(actions)
			}
			if len(actions) == 0 {
				output.Info("No corporate actions recorded")
				return nil
			}

			output.Bold("Corporate Actions")
			table := NewTable(output, "Date", "Scrip", "Type", "Ratio", "Qty Δ", "Amount")
			for _, a := range actions {
				amount := "-"
				if a.Amount > 0 {
					amount = utils.FormatIndianCurrency(a.Amount)
				}
				ratio := a.Ratio
				if ratio == "" {
					ratio = "-"
				}
				table.AddRow(
					a.ActionDate.Format(dateLayout),
					a.ScripCode,
					string(a.Type),
					ratio,
					utils.FormatQuantity(a.Quantity),
					amount,
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("scrip", "", "filter by scrip code")
	cmd.Flags().String("type", "", "filter by type (DIVIDEND, BONUS, SPLIT)")
	return cmd
}
