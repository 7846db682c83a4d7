package models

import "time"

// ActionType is the kind of corporate action.
type ActionType string

const (
	ActionDividend ActionType = "DIVIDEND"
	ActionBonus    ActionType = "BONUS"
	ActionSplit    ActionType = "SPLIT"
)

// Valid reports whether the action type is known.
func (t ActionType) Valid() bool {
	return t == ActionDividend || t == ActionBonus || t == ActionSplit
}

// CorporateAction is an audit record of a dividend, bonus issue or stock
// split. Dividends never touch the Position; bonus and split overwrite its
// quantity and cost basis. Quantity carries the share delta for bonus/split
// and the held quantity for dividends; Amount is the total dividend received;
// Ratio is the "m:n" form for bonus/split.
type CorporateAction struct {
	ID         int64
	ActionDate time.Time
	ScripCode  string
	ScripName  string
	Type       ActionType
	Quantity   int64
	Amount     float64
	Ratio      string
	Notes      string
	CreatedAt  time.Time
}
