package quotes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "bse-portfolio/internal/errors"
)

func newTestBSEProvider(serverURL string) *BSEProvider {
	p := NewBSEProvider(5*time.Second, 1, time.Millisecond)
	p.baseURL = serverURL
	return p
}

func TestBSEGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("scripcode") != "500325" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"Header": {
				"FullN": "Reliance Industries Ltd",
				"Open": "2,450.00",
				"High": "2,520.00",
				"Low": "2,445.50",
				"PrevClose": "2,460.00",
				"Vol": "1234567",
				"Upd_time": "23 Aug 2026 | 15:30"
			},
			"CurrRate": {
				"LTP": "2,510.25",
				"Chg": "50.25",
				"PcChg": "2.04"
			}
		}`))
	}))
	defer server.Close()

	p := newTestBSEProvider(server.URL)
	quote, err := p.GetQuote(context.Background(), "500325")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}

	if quote.CurrentPrice != 2510.25 {
		t.Errorf("price: want 2510.25, got %v", quote.CurrentPrice)
	}
	if quote.CompanyName != "Reliance Industries Ltd" {
		t.Errorf("company: got %q", quote.CompanyName)
	}
	if quote.Open != 2450.00 || quote.High != 2520.00 || quote.Low != 2445.50 {
		t.Errorf("unexpected OHLC: %+v", quote)
	}
	if quote.Volume != 1234567 {
		t.Errorf("volume: want 1234567, got %d", quote.Volume)
	}
}

func TestBSEGetQuoteUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Header": {}, "CurrRate": {"LTP": ""}}`))
	}))
	defer server.Close()

	p := newTestBSEProvider(server.URL)
	_, err := p.GetQuote(context.Background(), "999999")

	var qerr *apperrors.QuoteError
	if !errors.As(err, &qerr) {
		t.Fatalf("expected QuoteError, got %v", err)
	}
	if !errors.Is(err, apperrors.ErrQuoteUnavailable) {
		t.Errorf("expected ErrQuoteUnavailable in the chain, got %v", err)
	}
	if qerr.ScripCode != "999999" || qerr.Source != "bse" {
		t.Errorf("unexpected quote error: %+v", qerr)
	}
}

func TestBSEGetQuoteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := newTestBSEProvider(server.URL)
	if _, err := p.GetQuote(context.Background(), "500325"); err == nil {
		t.Error("expected error on server failure")
	}
}

func TestParseBSENumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"2,510.25", 2510.25},
		{"1234567", 1234567},
		{" 42.5 ", 42.5},
		{"", 0},
		{"-", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		if got := parseBSENumber(tt.in); got != tt.want {
			t.Errorf("parseBSENumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadInstrumentsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instruments.txt")
	content := `# watchlist
500325  # Reliance
532540

500180
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	codes, err := LoadInstrumentsFile(path)
	if err != nil {
		t.Fatalf("LoadInstrumentsFile: %v", err)
	}
	want := []string{"500325", "532540", "500180"}
	if len(codes) != len(want) {
		t.Fatalf("want %v, got %v", want, codes)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("line %d: want %s, got %s", i, want[i], codes[i])
		}
	}
}

func TestLoadInstrumentsFileMissing(t *testing.T) {
	codes, err := LoadInstrumentsFile(filepath.Join(t.TempDir(), "absent.txt"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if len(codes) != 0 {
		t.Errorf("expected empty list, got %v", codes)
	}
}
