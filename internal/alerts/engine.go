// Package alerts evaluates standing alert rules against price updates.
package alerts

import (
	"context"
	"fmt"

	"bse-portfolio/internal/logging"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/notify"
	"bse-portfolio/internal/store"
)

// Engine evaluates active alert rules per instrument. Each evaluation fires
// a rule at most once; repeated evaluations with a still-qualifying price
// re-trigger, so the caller's evaluation frequency is the effective
// de-bounce interval.
type Engine struct {
	store    store.LedgerStore
	notifier notify.Channel
}

// NewEngine creates a new alert engine.
func NewEngine(s store.LedgerStore, notifier notify.Channel) *Engine {
	if notifier == nil {
		notifier = notify.NewNoop()
	}
	return &Engine{store: s, notifier: notifier}
}

// EvaluateRule decides whether a single rule fires for the given prices.
// previous may be nil; change rules then never fire. Kind/condition pairings
// outside the supported set are inert. All thresholds are inclusive.
func EvaluateRule(rule *models.AlertRule, current float64, previous *float64) (bool, string) {
	name := rule.ScripName
	if name == "" {
		name = rule.ScripCode
	}

	switch {
	case rule.Kind == models.AlertTargetPrice && rule.Condition == models.CondAbove:
		if current >= rule.Threshold {
			return true, fmt.Sprintf("%s reached ₹%.2f (target ₹%.2f)", name, current, rule.Threshold)
		}
	case rule.Kind == models.AlertTargetPrice && rule.Condition == models.CondBelow:
		if current <= rule.Threshold {
			return true, fmt.Sprintf("%s dropped to ₹%.2f (target ₹%.2f)", name, current, rule.Threshold)
		}
	case rule.Kind == models.AlertStopLoss && rule.Condition == models.CondBelow:
		if current <= rule.Threshold {
			return true, fmt.Sprintf("%s hit stop loss at ₹%.2f (stop ₹%.2f)", name, current, rule.Threshold)
		}
	case rule.Kind == models.AlertPriceChange && rule.Condition == models.CondChangeUp:
		if previous == nil || *previous == 0 {
			return false, ""
		}
		pct := (current - *previous) / *previous * 100
		if pct >= rule.Threshold {
			return true, fmt.Sprintf("%s up %.2f%% to ₹%.2f (threshold %.2f%%)", name, pct, current, rule.Threshold)
		}
	case rule.Kind == models.AlertPriceChange && rule.Condition == models.CondChangeDown:
		if previous == nil || *previous == 0 {
			return false, ""
		}
		pct := (current - *previous) / *previous * 100
		if pct <= -rule.Threshold {
			return true, fmt.Sprintf("%s down %.2f%% to ₹%.2f (threshold %.2f%%)", name, pct, current, rule.Threshold)
		}
	}

	return false, ""
}

// Evaluate runs every active rule for one instrument against a price update
// and returns the events that fired. A failing rule is logged and skipped;
// it never aborts its siblings. Notification delivery is best-effort: the
// AlertEvent row is written whether or not the notification goes out.
func (e *Engine) Evaluate(ctx context.Context, scripCode string, current float64, previous *float64) ([]models.AlertEvent, error) {
	rules, err := e.store.ListAlertRules(ctx, scripCode, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}

	logger := logging.WithScrip(logging.FromContext(ctx), scripCode)

	var events []models.AlertEvent
	for i := range rules {
		rule := &rules[i]

		triggered, message := EvaluateRule(rule, current, previous)
		if !triggered {
			continue
		}

		sent := true
		if err := e.notifier.Send(ctx, "BSE Portfolio Alert", message); err != nil {
			sent = false
			logger.Error().Err(err).Int64("rule_id", rule.ID).Msg("Notification delivery failed")
		}

		event := models.AlertEvent{
			RuleID:           rule.ID,
			ScripCode:        rule.ScripCode,
			ScripName:        rule.ScripName,
			Kind:             rule.Kind,
			TriggerPrice:     current,
			Threshold:        rule.Threshold,
			Message:          message,
			NotificationSent: sent,
		}
		if err := e.store.RecordTrigger(ctx, &event); err != nil {
			logger.Error().Err(err).Int64("rule_id", rule.ID).Msg("Failed to record alert trigger")
			continue
		}

		logging.LogAlert(logger, rule.ID, rule.ScripCode, string(rule.Kind), current)
		events = append(events, event)
	}

	return events, nil
}

// EvaluateAll runs Evaluate for every instrument in the price map. Previous
// prices are optional per instrument. Per-instrument failures are logged and
// do not stop the pass.
func (e *Engine) EvaluateAll(ctx context.Context, current map[string]float64, previous map[string]float64) ([]models.AlertEvent, error) {
	logger := logging.FromContext(ctx)

	var all []models.AlertEvent
	for scrip, price := range current {
		var prev *float64
		if p, ok := previous[scrip]; ok {
			prev = &p
		}
		events, err := e.Evaluate(ctx, scrip, price, prev)
		if err != nil {
			logger.Error().Err(err).Str("scrip", scrip).Msg("Alert evaluation failed")
			continue
		}
		all = append(all, events...)
	}
	return all, nil
}
