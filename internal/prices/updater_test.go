package prices

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bse-portfolio/internal/alerts"
	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/notify"
	"bse-portfolio/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeProvider serves quotes from a map and fails everything else.
type fakeProvider struct {
	quotes map[string]float64
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GetQuote(ctx context.Context, scripCode string) (*models.Quote, error) {
	price, ok := f.quotes[scripCode]
	if !ok {
		return nil, apperrors.NewQuoteError(scripCode, "fake", apperrors.ErrQuoteUnavailable)
	}
	return &models.Quote{
		ScripCode:    scripCode,
		CurrentPrice: price,
		Open:         price * 0.99,
		High:         price * 1.01,
		Low:          price * 0.98,
		Volume:       1000,
	}, nil
}

func seedPosition(t *testing.T, s store.LedgerStore, scrip string, qty int64, invested, currentPrice float64) {
	t.Helper()
	ctx := context.Background()
	pos := &models.Position{ScripCode: scrip, Quantity: qty,
		AvgBuyPrice: invested / float64(qty), TotalInvested: invested}
	if err := s.UpsertPosition(ctx, pos); err != nil {
		t.Fatalf("UpsertPosition: %v", err)
	}
	if currentPrice > 0 {
		if err := s.UpdateCurrentPrices(ctx, map[string]float64{scrip: currentPrice}); err != nil {
			t.Fatalf("UpdateCurrentPrices: %v", err)
		}
	}
}

func TestUpdateHoldings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedPosition(t, s, "500325", 10, 14500, 0)
	seedPosition(t, s, "532540", 5, 17500, 0)

	provider := &fakeProvider{quotes: map[string]float64{
		"500325": 1600,
		// 532540 fails.
	}}
	updater := NewUpdater(s, provider, nil)
	updater.RequestDelay = 0

	result, err := updater.UpdateHoldings(ctx, nil)
	if err != nil {
		t.Fatalf("UpdateHoldings: %v", err)
	}

	if result.Total != 2 || result.Success != 1 {
		t.Errorf("expected 1/2 success, got %d/%d", result.Success, result.Total)
	}
	if len(result.Failed) != 1 || result.Failed[0] != "532540" {
		t.Errorf("expected 532540 in failed list, got %v", result.Failed)
	}

	// The successful quote patched the position.
	pos, err := s.GetPosition(ctx, "500325")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if pos.CurrentPrice != 1600 || pos.ProfitLoss != 1500 {
		t.Errorf("position not revalued: %+v", pos)
	}

	// The failed instrument was skipped, not zeroed.
	tcs, err := s.GetPosition(ctx, "532540")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if tcs.CurrentPrice != 0 {
		t.Errorf("failed quote must leave the position untouched: %+v", tcs)
	}

	// Price history recorded for the success.
	bars, err := s.ListPriceBars(ctx, "500325", 10)
	if err != nil {
		t.Fatalf("ListPriceBars: %v", err)
	}
	if len(bars) != 1 || bars[0].Close != 1600 || bars[0].Source != "fake" {
		t.Errorf("unexpected price bars: %+v", bars)
	}
}

func TestUpdateRunsAlertPassWithPreviousPrices(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Position last valued at 100; new quote 94 is a 6% drop.
	seedPosition(t, s, "500325", 10, 1000, 100)

	rule := &models.AlertRule{
		ScripCode: "500325",
		Kind:      models.AlertPriceChange,
		Condition: models.CondChangeDown,
		Threshold: 5,
		IsActive:  true,
	}
	if _, err := s.AddAlertRule(ctx, rule); err != nil {
		t.Fatalf("AddAlertRule: %v", err)
	}

	provider := &fakeProvider{quotes: map[string]float64{"500325": 94}}
	engine := alerts.NewEngine(s, notify.NewNoop())
	updater := NewUpdater(s, provider, engine)
	updater.RequestDelay = 0

	result, err := updater.UpdateHoldings(ctx, nil)
	if err != nil {
		t.Fatalf("UpdateHoldings: %v", err)
	}
	if len(result.Alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(result.Alerts))
	}
	if result.Alerts[0].TriggerPrice != 94 {
		t.Errorf("unexpected alert: %+v", result.Alerts[0])
	}

	events, err := s.ListAlertEvents(ctx, "500325", time.Time{})
	if err != nil {
		t.Fatalf("ListAlertEvents: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected the trigger recorded, got %d", len(events))
	}
}

func TestUpdateIncludesWatchlistExtras(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// No holdings at all; only a watchlist code with an alert on it.
	rule := &models.AlertRule{
		ScripCode: "500180",
		Kind:      models.AlertTargetPrice,
		Condition: models.CondAbove,
		Threshold: 1500,
		IsActive:  true,
	}
	if _, err := s.AddAlertRule(ctx, rule); err != nil {
		t.Fatalf("AddAlertRule: %v", err)
	}

	provider := &fakeProvider{quotes: map[string]float64{"500180": 1520}}
	engine := alerts.NewEngine(s, notify.NewNoop())
	updater := NewUpdater(s, provider, engine)
	updater.RequestDelay = 0

	result, err := updater.UpdateHoldings(ctx, []string{"500180"})
	if err != nil {
		t.Fatalf("UpdateHoldings: %v", err)
	}
	if result.Success != 1 {
		t.Errorf("expected watchlist code fetched, got %+v", result)
	}
	if len(result.Alerts) != 1 {
		t.Errorf("expected watchlist alert to fire, got %d", len(result.Alerts))
	}
}
