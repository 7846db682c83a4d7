// Package models defines the core domain types for the portfolio tracker.
package models

import "time"

// TradeSide is the direction of a trade.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// Valid reports whether the side is a known trade direction.
func (s TradeSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trade is a single ledger entry. Trades are append-only: once written they
// are never mutated, and are removed only by an explicit ledger reset.
type Trade struct {
	ID         int64
	TradeDate  time.Time
	ScripCode  string
	ScripName  string
	Quantity   int64
	Price      float64
	Side       TradeSide
	TotalValue float64
	Brokerage  float64
	Notes      string
	CreatedAt  time.Time
}

// RealizedTrade is the profit or loss locked in by one SELL, priced against
// the average of all BUY trades dated on or before the sell.
type RealizedTrade struct {
	TradeDate   time.Time
	ScripCode   string
	ScripName   string
	Quantity    int64
	AvgBuyPrice float64
	SellPrice   float64
	RealizedPnL float64
	PnLPercent  float64
}
