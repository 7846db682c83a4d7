package importer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

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

func TestImport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	im := NewImporter(s)

	csvData := `trade_date,scrip_code,scrip_name,quantity,price,trade_type,brokerage
2024-01-10,500325,Reliance Industries,10,1450.00,BUY,50
2024-02-10,500325,Reliance Industries,4,1600.00,SELL,20
2024-01-15,532540,TCS,5,3500.00,BUY,0
`

	summary, err := im.Import(ctx, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Imported != 3 || summary.Skipped != 0 {
		t.Errorf("expected 3 imported / 0 skipped, got %+v", summary)
	}

	trades, err := s.ListTrades(ctx, store.TradeFilter{})
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(trades))
	}

	// The import rebuilds holdings.
	pos, err := s.GetPosition(ctx, "500325")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if pos == nil || pos.Quantity != 6 {
		t.Errorf("expected rebuilt position with 6 held, got %+v", pos)
	}
}

func TestImportHeaderAliases(t *testing.T) {
	s := newTestStore(t)
	im := NewImporter(s)

	// Broker-style headers: Date, Script, Qty, Rate, Type.
	csvData := `Date,Script,Company Name,Qty,Rate,Type
2024-01-10,500325,Reliance Industries,10,1450.00,bought
`
	summary, err := im.Import(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Imported != 1 {
		t.Fatalf("expected 1 imported, got %+v", summary)
	}

	trades, err := s.ListTrades(context.Background(), store.TradeFilter{})
	if err != nil {
		t.Fatalf("ListTrades: %v", err)
	}
	got := trades[0]
	if got.ScripCode != "500325" || got.Quantity != 10 || got.Price != 1450.00 {
		t.Errorf("aliased columns mis-mapped: %+v", got)
	}
	if got.Side != "BUY" {
		t.Errorf("side alias: want BUY, got %s", got.Side)
	}
	if got.ScripName != "Reliance Industries" {
		t.Errorf("scrip name: got %q", got.ScripName)
	}
}

func TestImportSkipsBadRows(t *testing.T) {
	s := newTestStore(t)
	im := NewImporter(s)

	csvData := `trade_date,scrip_code,quantity,price,trade_type
2024-01-10,500325,10,1450.00,BUY
not-a-date,500325,10,1450.00,BUY
2024-01-12,500325,-5,1450.00,BUY
2024-01-13,500325,10,abc,BUY
2024-01-14,500325,10,1450.00,HOLD
2024-01-15,532540,5,3500.00,SELL
`
	summary, err := im.Import(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	// Row 6 is a sell with no prior buys: it imports (the ledger accepts it;
	// replay clamps), the four malformed rows are skipped.
	if summary.Imported != 2 {
		t.Errorf("expected 2 imported, got %d (errors: %v)", summary.Imported, summary.Errors)
	}
	if summary.Skipped != 4 {
		t.Errorf("expected 4 skipped, got %d", summary.Skipped)
	}
	if len(summary.Errors) != 4 {
		t.Errorf("expected 4 error messages, got %v", summary.Errors)
	}
}

func TestImportMissingRequiredColumn(t *testing.T) {
	s := newTestStore(t)
	im := NewImporter(s)

	csvData := `trade_date,scrip_code,quantity,trade_type
2024-01-10,500325,10,BUY
`
	if _, err := im.Import(context.Background(), strings.NewReader(csvData)); err == nil {
		t.Error("expected error for missing price column")
	}
}

func TestParseDateFormats(t *testing.T) {
	for _, in := range []string{"2024-01-10", "10-01-2024", "10/01/2024", "2024/01/10", "10 Jan 2024"} {
		d, err := parseDate(in)
		if err != nil {
			t.Errorf("parseDate(%q): %v", in, err)
			continue
		}
		if d.Year() != 2024 || d.Month() != 1 || d.Day() != 10 {
			t.Errorf("parseDate(%q) = %v", in, d)
		}
	}
	if _, err := parseDate("Jan 10"); err == nil {
		t.Error("expected error for unrecognized format")
	}
}
