package portfolio

import (
	"context"
	"math"
	"testing"
	"time"

	"bse-portfolio/internal/models"
)

func TestRevalue(t *testing.T) {
	now := time.Now()
	pos := &models.Position{
		ScripCode:     "500325",
		Quantity:      10,
		AvgBuyPrice:   1450,
		TotalInvested: 14500,
	}

	Revalue(pos, 1600, now)

	if pos.CurrentValue != 16000 {
		t.Errorf("current value: want 16000, got %v", pos.CurrentValue)
	}
	if pos.ProfitLoss != 1500 {
		t.Errorf("pnl: want 1500, got %v", pos.ProfitLoss)
	}
	if math.Abs(pos.ProfitLossPercent-10.34) > 0.01 {
		t.Errorf("pnl percent: want ~10.34, got %v", pos.ProfitLossPercent)
	}
	if !pos.LastUpdated.Equal(now) {
		t.Errorf("last updated not stamped")
	}
}

func TestRevalueZeroInvested(t *testing.T) {
	pos := &models.Position{ScripCode: "500325", Quantity: 0, TotalInvested: 0}
	Revalue(pos, 1600, time.Now())
	if pos.ProfitLossPercent != 0 {
		t.Errorf("expected 0%% on zero invested, got %v", pos.ProfitLossPercent)
	}
}

func TestRealizedPnL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := NewValuator(s)

	// Buy 10 @ 100, buy 10 @ 200, then sell 5 @ 250 with 25 brokerage.
	// Avg buy as of the sell date = 3000/20 = 150.
	// Realized = 5*250 - 5*150 - 25 = 475.
	seed := []models.Trade{
		buy("2024-01-10", 10, 100, 0),
		buy("2024-02-10", 10, 200, 0),
		sell("2024-03-10", 5, 250, 25),
	}
	for i := range seed {
		if _, err := s.AppendTrade(ctx, &seed[i]); err != nil {
			t.Fatalf("AppendTrade: %v", err)
		}
	}

	records, err := v.RealizedPnL(ctx, "500325")
	if err != nil {
		t.Fatalf("RealizedPnL: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.AvgBuyPrice != 150 {
		t.Errorf("avg buy: want 150, got %v", rec.AvgBuyPrice)
	}
	if rec.RealizedPnL != 475 {
		t.Errorf("realized: want 475, got %v", rec.RealizedPnL)
	}
	if math.Abs(rec.PnLPercent-63.33) > 0.01 {
		t.Errorf("pnl percent: want ~63.33, got %v", rec.PnLPercent)
	}
}

func TestRealizedPnLIgnoresLaterBuys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := NewValuator(s)

	// The buy after the sell date must not dilute the as-of average.
	seed := []models.Trade{
		buy("2024-01-10", 10, 100, 0),
		sell("2024-02-10", 5, 150, 0),
		buy("2024-03-10", 10, 500, 0),
	}
	for i := range seed {
		if _, err := s.AppendTrade(ctx, &seed[i]); err != nil {
			t.Fatalf("AppendTrade: %v", err)
		}
	}

	records, err := v.RealizedPnL(ctx, "500325")
	if err != nil {
		t.Fatalf("RealizedPnL: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].AvgBuyPrice != 100 {
		t.Errorf("avg buy as of sell date: want 100, got %v", records[0].AvgBuyPrice)
	}
	if records[0].RealizedPnL != 250 {
		t.Errorf("realized: want 250, got %v", records[0].RealizedPnL)
	}
}

func TestRealizedPnLSkipsSellWithoutBuys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := NewValuator(s)

	tr := sell("2024-01-10", 5, 150, 0)
	if _, err := s.AppendTrade(ctx, &tr); err != nil {
		t.Fatalf("AppendTrade: %v", err)
	}

	records, err := v.RealizedPnL(ctx, "500325")
	if err != nil {
		t.Fatalf("RealizedPnL: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records for sell without prior buys, got %+v", records)
	}
}

func TestSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := NewValuator(s)

	positions := []models.Position{
		{ScripCode: "500325", ScripName: "Reliance Industries", Quantity: 10,
			AvgBuyPrice: 1450, TotalInvested: 14500},
		{ScripCode: "532540", ScripName: "TCS", Quantity: 5,
			AvgBuyPrice: 3500, TotalInvested: 17500},
		{ScripCode: "500180", ScripName: "HDFC Bank", Quantity: 0,
			AvgBuyPrice: 0, TotalInvested: 0},
	}
	for i := range positions {
		if err := s.UpsertPosition(ctx, &positions[i]); err != nil {
			t.Fatalf("UpsertPosition: %v", err)
		}
	}
	err := s.UpdateCurrentPrices(ctx, map[string]float64{
		"500325": 1600, // +1500, +10.34%
		"532540": 3400, // -500, -2.86%
	})
	if err != nil {
		t.Fatalf("UpdateCurrentPrices: %v", err)
	}

	summary, err := v.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if summary.TotalStocks != 2 {
		t.Errorf("total stocks: want 2 (held only), got %d", summary.TotalStocks)
	}
	if summary.TotalInvested != 32000 {
		t.Errorf("total invested: want 32000, got %v", summary.TotalInvested)
	}
	if summary.CurrentValue != 33000 {
		t.Errorf("current value: want 33000, got %v", summary.CurrentValue)
	}
	if summary.TotalPnL != 1000 {
		t.Errorf("total pnl: want 1000, got %v", summary.TotalPnL)
	}
	if summary.Gainers != 1 || summary.Losers != 1 || summary.Neutral != 0 {
		t.Errorf("partition: want 1/1/0, got %d/%d/%d",
			summary.Gainers, summary.Losers, summary.Neutral)
	}
	if summary.BestPerformer == nil || summary.BestPerformer.ScripCode != "500325" {
		t.Errorf("best performer: want 500325, got %+v", summary.BestPerformer)
	}
	if summary.WorstPerformer == nil || summary.WorstPerformer.ScripCode != "532540" {
		t.Errorf("worst performer: want 532540, got %+v", summary.WorstPerformer)
	}
}
