package portfolio

import (
	"context"
	"fmt"
	"time"

	"bse-portfolio/internal/models"
	"bse-portfolio/internal/store"
)

// Valuator computes unrealized and realized P&L from positions and the trade
// ledger. Unrealized marks held quantity to an externally supplied price;
// realized prices each SELL against the average of BUYs dated on or before
// the sell.
type Valuator struct {
	store store.LedgerStore
}

// NewValuator creates a new valuation engine.
func NewValuator(s store.LedgerStore) *Valuator {
	return &Valuator{store: s}
}

// Revalue marks a position to the given price, patching its cached valuation
// fields. Pure with respect to the store; callers persist via
// UpdateCurrentPrices.
func Revalue(pos *models.Position, currentPrice float64, now time.Time) {
	pos.CurrentPrice = currentPrice
	pos.CurrentValue = float64(pos.Quantity) * currentPrice
	pos.ProfitLoss = pos.CurrentValue - pos.TotalInvested
	if pos.TotalInvested > 0 {
		pos.ProfitLossPercent = pos.ProfitLoss / pos.TotalInvested * 100
	} else {
		pos.ProfitLossPercent = 0
	}
	pos.LastUpdated = now
}

// RealizedPnL computes one realized-P&L record per SELL in the instrument's
// ledger. The buy price for each sell is the quantity-weighted average of
// all BUY trades dated on or before the sell's trade date. Sells with no
// prior buys are skipped.
func (v *Valuator) RealizedPnL(ctx context.Context, scripCode string) ([]models.RealizedTrade, error) {
	trades, err := v.store.ListTrades(ctx, store.TradeFilter{ScripCode: scripCode})
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return realizedFromTrades(trades), nil
}

// realizedFromTrades computes realized records from one instrument's trades,
// already in ledger order.
func realizedFromTrades(trades []models.Trade) []models.RealizedTrade {
	var records []models.RealizedTrade

	for _, sell := range trades {
		if sell.Side != models.SideSell {
			continue
		}

		var buyQty int64
		var buyValue float64
		for _, buy := range trades {
			if buy.Side != models.SideBuy {
				continue
			}
			if buy.TradeDate.After(sell.TradeDate) {
				continue
			}
			buyQty += buy.Quantity
			buyValue += float64(buy.Quantity) * buy.Price
		}
		if buyQty == 0 {
			continue
		}

		avgBuy := buyValue / float64(buyQty)
		cost := float64(sell.Quantity) * avgBuy
		pnl := float64(sell.Quantity)*sell.Price - cost - sell.Brokerage

		rec := models.RealizedTrade{
			TradeDate:   sell.TradeDate,
			ScripCode:   sell.ScripCode,
			ScripName:   sell.ScripName,
			Quantity:    sell.Quantity,
			AvgBuyPrice: round2(avgBuy),
			SellPrice:   sell.Price,
			RealizedPnL: round2(pnl),
		}
		if cost > 0 {
			rec.PnLPercent = round2(pnl / cost * 100)
		}
		records = append(records, rec)
	}

	return records
}

// TotalRealizedPnL sums realized P&L across the whole ledger.
func (v *Valuator) TotalRealizedPnL(ctx context.Context) (float64, error) {
	trades, err := v.store.ListTrades(ctx, store.TradeFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list trades: %w", err)
	}

	byScrip := make(map[string][]models.Trade)
	for _, t := range trades {
		byScrip[t.ScripCode] = append(byScrip[t.ScripCode], t)
	}

	var total float64
	for _, scripTrades := range byScrip {
		for _, rec := range realizedFromTrades(scripTrades) {
			total += rec.RealizedPnL
		}
	}
	return round2(total), nil
}

// Summary aggregates all held positions into a portfolio-level view.
func (v *Valuator) Summary(ctx context.Context) (*models.PortfolioSummary, error) {
	positions, err := v.store.ListPositions(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	summary := &models.PortfolioSummary{TotalStocks: len(positions)}

	for i := range positions {
		pos := &positions[i]
		summary.TotalInvested += pos.TotalInvested
		summary.CurrentValue += pos.CurrentValue

		switch {
		case pos.ProfitLoss > 0:
			summary.Gainers++
		case pos.ProfitLoss < 0:
			summary.Losers++
		default:
			summary.Neutral++
		}

		if summary.BestPerformer == nil || pos.ProfitLossPercent > summary.BestPerformer.PnLPercent {
			summary.BestPerformer = &models.Performer{
				ScripCode:  pos.ScripCode,
				ScripName:  pos.ScripName,
				PnLPercent: pos.ProfitLossPercent,
			}
		}
		if summary.WorstPerformer == nil || pos.ProfitLossPercent < summary.WorstPerformer.PnLPercent {
			summary.WorstPerformer = &models.Performer{
				ScripCode:  pos.ScripCode,
				ScripName:  pos.ScripName,
				PnLPercent: pos.ProfitLossPercent,
			}
		}
	}

	summary.TotalPnL = summary.CurrentValue - summary.TotalInvested
	if summary.TotalInvested > 0 {
		summary.TotalPnLPercent = summary.TotalPnL / summary.TotalInvested * 100
	}

	realized, err := v.TotalRealizedPnL(ctx)
	if err != nil {
		return nil, err
	}
	summary.TotalRealizedPnL = realized

	return summary, nil
}
