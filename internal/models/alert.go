package models

import "time"

// AlertKind is the category of an alert rule.
type AlertKind string

const (
	AlertPriceChange AlertKind = "PRICE_CHANGE"
	AlertTargetPrice AlertKind = "TARGET_PRICE"
	AlertStopLoss    AlertKind = "STOP_LOSS"
)

// Valid reports whether the kind is known.
func (k AlertKind) Valid() bool {
	return k == AlertPriceChange || k == AlertTargetPrice || k == AlertStopLoss
}

// AlertCondition is the comparison a rule applies to the price.
type AlertCondition string

const (
	CondAbove      AlertCondition = "ABOVE"
	CondBelow      AlertCondition = "BELOW"
	CondChangeUp   AlertCondition = "CHANGE_UP"
	CondChangeDown AlertCondition = "CHANGE_DOWN"
)

// Valid reports whether the condition is known.
func (c AlertCondition) Valid() bool {
	return c == CondAbove || c == CondBelow || c == CondChangeUp || c == CondChangeDown
}

// AlertRule is a standing condition evaluated against price updates.
// Unsupported kind/condition pairings are permitted but never trigger.
type AlertRule struct {
	ID            int64
	ScripCode     string
	ScripName     string
	Kind          AlertKind
	Condition     AlertCondition
	Threshold     float64
	IsActive      bool
	CreatedAt     time.Time
	LastTriggered *time.Time
	Notes         string
}

// AlertEvent is one row of trigger history. Events are append-only.
type AlertEvent struct {
	ID               int64
	RuleID           int64
	ScripCode        string
	ScripName        string
	Kind             AlertKind
	TriggerPrice     float64
	Threshold        float64
	Message          string
	TriggeredAt      time.Time
	NotificationSent bool
}
