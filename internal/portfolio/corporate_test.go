package portfolio

import (
	"context"
	"errors"
	"testing"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/store"
)

func TestParseRatio(t *testing.T) {
	tests := []struct {
		ratio   string
		wantM   int64
		wantN   int64
		wantErr bool
	}{
		{"1:2", 1, 2, false},
		{"2:1", 2, 1, false},
		{"10:3", 10, 3, false},
		{" 1 : 2 ", 1, 2, false},
		{"1:0", 0, 0, true},
		{"0:2", 0, 0, true},
		{"-1:2", 0, 0, true},
		{"1:2:3", 0, 0, true},
		{"12", 0, 0, true},
		{"a:b", 0, 0, true},
		{"1.5:2", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.ratio, func(t *testing.T) {
			m, n, err := ParseRatio(tt.ratio)
			if tt.wantErr {
				var rerr *apperrors.RatioError
				if !errors.As(err, &rerr) {
					t.Errorf("expected RatioError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRatio(%q): %v", tt.ratio, err)
			}
			if m != tt.wantM || n != tt.wantN {
				t.Errorf("ParseRatio(%q) = %d:%d, want %d:%d", tt.ratio, m, n, tt.wantM, tt.wantN)
			}
		})
	}
}

func seedPosition(t *testing.T, s store.LedgerStore, qty int64, avg, invested float64) {
	t.Helper()
	pos := &models.Position{
		ScripCode:     "500325",
		ScripName:     "Reliance Industries",
		Quantity:      qty,
		AvgBuyPrice:   avg,
		TotalInvested: invested,
	}
	if err := s.UpsertPosition(context.Background(), pos); err != nil {
		t.Fatalf("UpsertPosition: %v", err)
	}
}

func TestApplyBonus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	adj := NewAdjuster(s)

	// 100 shares at avg 50, bonus 1:2 => 50 free shares.
	seedPosition(t, s, 100, 50, 5000)

	pos, err := adj.ApplyBonus(ctx, "500325", date("2024-06-01"), "1:2", "")
	if err != nil {
		t.Fatalf("ApplyBonus: %v", err)
	}
	if pos.Quantity != 150 {
		t.Errorf("quantity: want 150, got %d", pos.Quantity)
	}
	if pos.AvgBuyPrice != 33.33 {
		t.Errorf("avg: want 33.33, got %v", pos.AvgBuyPrice)
	}
	if pos.TotalInvested != 5000 {
		t.Errorf("invested must be unchanged: want 5000, got %v", pos.TotalInvested)
	}

	// The patch and audit row are committed together.
	stored, err := s.GetPosition(ctx, "500325")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if stored.Quantity != 150 {
		t.Errorf("stored quantity: want 150, got %d", stored.Quantity)
	}
	actions, err := s.ListCorporateActions(ctx, store.ActionFilter{ScripCode: "500325"})
	if err != nil {
		t.Fatalf("ListCorporateActions: %v", err)
	}
	if len(actions) != 1 || actions[0].Type != models.ActionBonus || actions[0].Quantity != 50 {
		t.Errorf("unexpected audit rows: %+v", actions)
	}
}

func TestApplyBonusFloorsOddLots(t *testing.T) {
	s := newTestStore(t)
	adj := NewAdjuster(s)

	// 105 shares, bonus 1:2 => floor(105/2)*1 = 52 free shares.
	seedPosition(t, s, 105, 50, 5250)

	pos, err := adj.ApplyBonus(context.Background(), "500325", date("2024-06-01"), "1:2", "")
	if err != nil {
		t.Fatalf("ApplyBonus: %v", err)
	}
	if pos.Quantity != 157 {
		t.Errorf("quantity: want 157, got %d", pos.Quantity)
	}
}

func TestApplySplit(t *testing.T) {
	s := newTestStore(t)
	adj := NewAdjuster(s)

	// 100 shares at avg 1000, split 1:2 => 200 shares at 500.
	seedPosition(t, s, 100, 1000, 100000)

	pos, err := adj.ApplySplit(context.Background(), "500325", date("2024-06-01"), "1:2", "")
	if err != nil {
		t.Fatalf("ApplySplit: %v", err)
	}
	if pos.Quantity != 200 {
		t.Errorf("quantity: want 200, got %d", pos.Quantity)
	}
	if pos.AvgBuyPrice != 500 {
		t.Errorf("avg: want 500, got %v", pos.AvgBuyPrice)
	}
	if pos.TotalInvested != 100000 {
		t.Errorf("invested: want 100000, got %v", pos.TotalInvested)
	}
}

func TestApplySplitReverse(t *testing.T) {
	s := newTestStore(t)
	adj := NewAdjuster(s)

	// Reverse split 5:1: 103 shares at avg 20 => floor(103/5) = 20 shares at 100.
	seedPosition(t, s, 103, 20, 2060)

	pos, err := adj.ApplySplit(context.Background(), "500325", date("2024-06-01"), "5:1", "")
	if err != nil {
		t.Fatalf("ApplySplit: %v", err)
	}
	if pos.Quantity != 20 {
		t.Errorf("quantity: want 20, got %d", pos.Quantity)
	}
	if pos.AvgBuyPrice != 100 {
		t.Errorf("avg: want 100, got %v", pos.AvgBuyPrice)
	}
	if pos.TotalInvested != 2000 {
		t.Errorf("invested recomputed: want 2000, got %v", pos.TotalInvested)
	}
}

func TestRecordDividend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	adj := NewAdjuster(s)

	seedPosition(t, s, 100, 50, 5000)

	action, err := adj.RecordDividend(ctx, "500325", date("2024-06-01"), 8.50, "final dividend")
	if err != nil {
		t.Fatalf("RecordDividend: %v", err)
	}
	if action.Amount != 850.00 {
		t.Errorf("amount: want 850, got %v", action.Amount)
	}
	if action.Quantity != 100 {
		t.Errorf("quantity: want 100, got %d", action.Quantity)
	}

	pos, err := s.GetPosition(ctx, "500325")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if pos.Quantity != 100 || pos.AvgBuyPrice != 50 || pos.TotalInvested != 5000 {
		t.Errorf("dividend must not mutate the position: %+v", pos)
	}
}

func TestAdjusterRejections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	adj := NewAdjuster(s)

	// Unknown instrument.
	if _, err := adj.ApplyBonus(ctx, "999999", date("2024-06-01"), "1:2", ""); !errors.Is(err, apperrors.ErrScripNotFound) {
		t.Errorf("expected ErrScripNotFound, got %v", err)
	}

	// Fully exited position.
	seedPosition(t, s, 100, 50, 5000)
	exited := &models.Position{ScripCode: "532540", Quantity: 0}
	if err := s.UpsertPosition(ctx, exited); err != nil {
		t.Fatalf("UpsertPosition: %v", err)
	}
	if _, err := adj.RecordDividend(ctx, "532540", date("2024-06-01"), 5, ""); !errors.Is(err, apperrors.ErrNoHoldings) {
		t.Errorf("expected ErrNoHoldings, got %v", err)
	}

	// Malformed ratio rejected before any mutation.
	if _, err := adj.ApplySplit(ctx, "500325", date("2024-06-01"), "1:2:3", ""); err == nil {
		t.Error("expected error for malformed ratio")
	}
	actions, err := s.ListCorporateActions(ctx, store.ActionFilter{})
	if err != nil {
		t.Fatalf("ListCorporateActions: %v", err)
	}
	if len(actions) != 0 {
		t.Errorf("rejections must not leave audit rows, got %+v", actions)
	}

	// Non-positive dividend amount.
	if _, err := adj.RecordDividend(ctx, "500325", date("2024-06-01"), 0, ""); err == nil {
		t.Error("expected error for zero dividend amount")
	}
}
