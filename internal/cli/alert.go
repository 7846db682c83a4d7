package cli

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/models"
	"bse-portfolio/pkg/utils"
)

// addAlertCommands adds alert rule and history commands.
func addAlertCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Manage price alert rules",
		Long: `Alert rules are evaluated on every price update. Thresholds are
inclusive; a rule re-triggers on every evaluation while its condition
holds.`,
	}
	cmd.AddCommand(newAlertAddCmd(app))
	cmd.AddCommand(newAlertListCmd(app))
	cmd.AddCommand(newAlertHistoryCmd(app))
	cmd.AddCommand(newAlertSetActiveCmd(app, true))
	cmd.AddCommand(newAlertSetActiveCmd(app, false))
	cmd.AddCommand(newAlertDeleteCmd(app))
	rootCmd.AddCommand(cmd)
}

// triggerablePair reports whether a kind/condition pairing can ever fire.
// Other pairings are stored but stay inert.
func triggerablePair(kind models.AlertKind, cond models.AlertCondition) bool {
	switch kind {
	case models.AlertTargetPrice:
		return cond == models.CondAbove || cond == models.CondBelow
	case models.AlertStopLoss:
		return cond == models.CondBelow
	case models.AlertPriceChange:
		return cond == models.CondChangeUp || cond == models.CondChangeDown
	}
	return false
}

func newAlertAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <scrip-code> <threshold>",
		Short: "Add an alert rule",
		Long: `Add a standing alert rule for an instrument.

Kinds and conditions:
  TARGET_PRICE  ABOVE | BELOW      price crosses an absolute level
  STOP_LOSS     BELOW              price falls to the stop level
  PRICE_CHANGE  CHANGE_UP | CHANGE_DOWN
                                   move vs the previous update, threshold in %`,
		Example: `  bsepf alert add 500325 2500 --kind TARGET_PRICE --condition ABOVE
  bsepf alert add 500325 1200 --kind STOP_LOSS --condition BELOW
  bsepf alert add 532540 5 --kind PRICE_CHANGE --condition CHANGE_DOWN`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}

			scripCode := args[0]
			threshold, err := strconv.ParseFloat(args[1], 64)
			if err != nil || threshold <= 0 {
				output.Error("Invalid threshold: %s", args[1])
				return apperrors.NewValidationError("threshold", args[1], "must be a positive number")
			}

			kindStr, _ := cmd.Flags().GetString("kind")
			condStr, _ := cmd.Flags().GetString("condition")
			name, _ := cmd.Flags().GetString("name")
			notes, _ := cmd.Flags().GetString("notes")

			kind := models.AlertKind(kindStr)
			if !kind.Valid() {
				output.Error("Unknown kind: %s", kindStr)
				return apperrors.NewValidationError("kind", kindStr, "must be TARGET_PRICE, STOP_LOSS or PRICE_CHANGE")
			}
			cond := models.AlertCondition(condStr)
			if !cond.Valid() {
				output.Error("Unknown condition: %s", condStr)
				return apperrors.NewValidationError("condition", condStr, "must be ABOVE, BELOW, CHANGE_UP or CHANGE_DOWN")
			}

			rule := &models.AlertRule{
				ScripCode: scripCode,
				ScripName: name,
				Kind:      kind,
				Condition: cond,
				Threshold: threshold,
				IsActive:  true,
				Notes:     notes,
			}
			id, err := app.Store.AddAlertRule(ctx, rule)
			if err != nil {
				output.Error("Failed to add rule: %v", err)
				return err
			}

			if output.IsJSON() {
				rule.ID = id
				return output.JSON(rule)
			}

			output.Success("✓ Alert rule #%d added", id)
			output.Printf("  %s %s %s %s\n", scripCode, kind, cond, formatThreshold(kind, threshold))
			if !triggerablePair(kind, cond) {
				output.Warning("⚠ %s with %s never triggers; the rule is stored but inert", kind, cond)
			}
			return nil
		},
	}

	cmd.Flags().String("kind", string(models.AlertTargetPrice), "alert kind (TARGET_PRICE, STOP_LOSS, PRICE_CHANGE)")
	cmd.Flags().String("condition", string(models.CondAbove), "trigger condition (ABOVE, BELOW, CHANGE_UP, CHANGE_DOWN)")
	cmd.Flags().StringP("name", "n", "", "company name")
	cmd.Flags().String("notes", "", "free-form notes")
	return cmd
}

func formatThreshold(kind models.AlertKind, threshold float64) string {
	if kind == models.AlertPriceChange {
		return strconv.FormatFloat(threshold, 'f', 2, 64) + "%"
	}
	return utils.FormatIndianCurrency(threshold)
}

func newAlertListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alert rules",
		Example: `  bsepf alert list
  bsepf alert list --scrip 500325 --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			scrip, _ := cmd.Flags().GetString("scrip")
			all, _ := cmd.Flags().GetBool("all")

			rules, err := app.Store.ListAlertRules(ctx, scrip, !all)
			if err != nil {
				output.Error("Failed to list rules: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(rules)
			}
			if len(rules) == 0 {
				output.Info("No alert rules")
				return nil
			}

			output.Bold("Alert Rules")
			table := NewTable(output, "ID", "Scrip", "Kind", "Condition", "Threshold", "Active", "Last Triggered")
			for _, r := range rules {
				active := output.Green("yes")
				if !r.IsActive {
					active = output.Red("no")
				}
				table.AddRow(
					strconv.FormatInt(r.ID, 10),
					r.ScripCode,
					string(r.Kind),
					string(r.Condition),
					formatThreshold(r.Kind, r.Threshold),
					active,
					fmtTime(r.LastTriggered),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("scrip", "", "filter by scrip code")
	cmd.Flags().Bool("all", false, "include inactive rules")
	return cmd
}

func newAlertHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show triggered alert events",
		Example: `  bsepf alert history
  bsepf alert history --scrip 500325 --days 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			scrip, _ := cmd.Flags().GetString("scrip")
			days, _ := cmd.Flags().GetInt("days")

			var since time.Time
			if days > 0 {
				since = time.Now().AddDate(0, 0, -days)
			}

			events, err := app.Store.ListAlertEvents(ctx, scrip, since)
			if err != nil {
				output.Error("Failed to list alert history: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(events)
			}
			if len(events) == 0 {
				output.Info("No alert events")
				return nil
			}

			output.Bold("Alert History")
			table := NewTable(output, "Time", "Rule", "Scrip", "Kind", "Price", "Notified")
			for _, ev := range events {
				notified := output.Green("yes")
				if !ev.NotificationSent {
					notified = output.Yellow("no")
				}
				table.AddRow(
					ev.TriggeredAt.Format("2006-01-02 15:04"),
					strconv.FormatInt(ev.RuleID, 10),
					ev.ScripCode,
					string(ev.Kind),
					utils.FormatIndianCurrency(ev.TriggerPrice),
					notified,
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("scrip", "", "filter by scrip code")
	cmd.Flags().Int("days", 0, "only events from the last N days")
	return cmd
}

func newAlertSetActiveCmd(app *App, active bool) *cobra.Command {
	use, short := "enable <rule-id>", "Re-enable a disabled alert rule"
	if !active {
		use, short = "disable <rule-id>", "Disable an alert rule without deleting it"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return apperrors.NewValidationError("rule_id", args[0], "must be an integer")
			}

			if err := app.Store.SetRuleActive(ctx, id, active); err != nil {
				output.Error("Failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"rule_id": id, "active": active})
			}
			if active {
				output.Success("✓ Rule #%d enabled", id)
			} else {
				output.Success("✓ Rule #%d disabled", id)
			}
			return nil
		},
	}
}

func newAlertDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete an alert rule (its trigger history is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := app.context(30 * time.Second)
			defer cancel()

			if app.Store == nil {
				return errors.New("store not initialized")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return apperrors.NewValidationError("rule_id", args[0], "must be an integer")
			}

			if err := app.Store.DeleteRule(ctx, id); err != nil {
				output.Error("Failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"rule_id": id, "deleted": true})
			}
			output.Success("✓ Rule #%d deleted", id)
			return nil
		},
	}
}

// fmtTime renders a nullable timestamp.
func fmtTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
