package models

import "time"

// Position is the aggregated holding for one instrument. It is derived
// entirely from the trade ledger plus corporate actions; the aggregator is
// its single writer, price updates and corporate actions patch it in place.
type Position struct {
	ScripCode         string
	ScripName         string
	Quantity          int64
	AvgBuyPrice       float64
	TotalInvested     float64
	CurrentPrice      float64
	CurrentValue      float64
	ProfitLoss        float64
	ProfitLossPercent float64
	LastUpdated       time.Time
}

// Held reports whether the position still holds shares.
func (p *Position) Held() bool {
	return p.Quantity > 0
}

// Performer identifies an instrument by its unrealized P&L percentage.
type Performer struct {
	ScripCode  string
	ScripName  string
	PnLPercent float64
}

// PortfolioSummary is the portfolio-level aggregation across all held positions.
type PortfolioSummary struct {
	TotalStocks      int
	TotalInvested    float64
	CurrentValue     float64
	TotalPnL         float64
	TotalPnLPercent  float64
	TotalRealizedPnL float64
	BestPerformer    *Performer
	WorstPerformer   *Performer
	Gainers          int
	Losers           int
	Neutral          int
}
