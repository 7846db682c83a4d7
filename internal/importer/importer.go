// Package importer loads trades from CSV files into the ledger.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/logging"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/portfolio"
	"bse-portfolio/internal/store"
)

// headerAliases maps the column names brokers actually export to the
// canonical names, matched case-insensitively.
var headerAliases = map[string]string{
	"date":             "trade_date",
	"trade date":       "trade_date",
	"transaction date": "trade_date",
	"script":           "scrip_code",
	"scrip":            "scrip_code",
	"stock code":       "scrip_code",
	"symbol":           "scrip_code",
	"code":             "scrip_code",
	"name":             "scrip_name",
	"company":          "scrip_name",
	"company name":     "scrip_name",
	"stock name":       "scrip_name",
	"qty":              "quantity",
	"shares":           "quantity",
	"no of shares":     "quantity",
	"rate":             "price",
	"buy price":        "price",
	"sell price":       "price",
	"avg price":        "price",
	"average price":    "price",
	"type":             "trade_type",
	"action":           "trade_type",
	"transaction type": "trade_type",
	"buy/sell":         "trade_type",
}

// sideAliases normalizes the trade side spellings brokers use.
var sideAliases = map[string]models.TradeSide{
	"BUY": models.SideBuy, "B": models.SideBuy,
	"BOUGHT": models.SideBuy, "PURCHASE": models.SideBuy,
	"SELL": models.SideSell, "S": models.SideSell,
	"SOLD": models.SideSell, "SALE": models.SideSell,
}

// dateLayouts are the date formats accepted in trade files.
var dateLayouts = []string{
	"2006-01-02", "02-01-2006", "02/01/2006", "2006/01/02", "02 Jan 2006",
}

// csvTrade is the canonical row shape after header normalization. Numeric
// cells stay strings so one malformed cell skips its row instead of failing
// the whole file.
type csvTrade struct {
	TradeDate string `csv:"trade_date"`
	ScripCode string `csv:"scrip_code"`
	ScripName string `csv:"scrip_name"`
	Quantity  string `csv:"quantity"`
	Price     string `csv:"price"`
	TradeType string `csv:"trade_type"`
	Brokerage string `csv:"brokerage"`
	Notes     string `csv:"notes"`
}

// Summary reports the outcome of one import.
type Summary struct {
	Imported int
	Skipped  int
	Errors   []string
}

// Importer loads trade CSVs into the ledger and rebuilds holdings afterward.
type Importer struct {
	store      store.LedgerStore
	aggregator *portfolio.Aggregator
}

// NewImporter creates a trade importer.
func NewImporter(s store.LedgerStore) *Importer {
	return &Importer{store: s, aggregator: portfolio.NewAggregator(s)}
}

// ImportFile imports trades from a CSV file. Bad rows are skipped and
// reported; good rows are appended to the ledger. Holdings are rebuilt once
// at the end.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return im.Import(ctx, f)
}

// Import imports trades from CSV data.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Summary, error) {
	rows, err := parseCSV(r)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	summary := &Summary{}

	for i, row := range rows {
		trade, err := rowToTrade(row)
		if err != nil {
			summary.Skipped++
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			logger.Warn().Err(err).Int("row", i+1).Msg("Skipping bad import row")
			continue
		}

		if _, err := im.store.AppendTrade(ctx, trade); err != nil {
			return summary, fmt.Errorf("failed to append trade at row %d: %w", i+1, err)
		}
		summary.Imported++
	}

	if summary.Imported > 0 {
		if _, _, err := im.aggregator.Rebuild(ctx); err != nil {
			return summary, fmt.Errorf("import succeeded but rebuild failed: %w", err)
		}
	}

	logger.Info().
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Msg("Trade import complete")

	return summary, nil
}

// parseCSV reads the file with its header row normalized through the alias
// table, then unmarshals via gocsv.
func parseCSV(r io.Reader) ([]csvTrade, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	header := records[0]
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if canonical, ok := headerAliases[name]; ok {
			name = canonical
		}
		header[i] = name
	}
	for _, required := range []string{"trade_date", "scrip_code", "quantity", "price", "trade_type"} {
		if !containsColumn(header, required) {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to rewrite csv: %w", err)
	}

	var rows []csvTrade
	if err := gocsv.UnmarshalString(buf.String(), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return rows, nil
}

func containsColumn(header []string, name string) bool {
	for _, col := range header {
		if col == name {
			return true
		}
	}
	return false
}

// rowToTrade validates one normalized row into a Trade.
func rowToTrade(row csvTrade) (*models.Trade, error) {
	tradeDate, err := parseDate(row.TradeDate)
	if err != nil {
		return nil, err
	}

	scripCode := strings.TrimSpace(row.ScripCode)
	if scripCode == "" {
		return nil, apperrors.NewValidationError("scrip_code", row.ScripCode, "must not be empty")
	}

	quantity, err := strconv.ParseInt(strings.TrimSpace(row.Quantity), 10, 64)
	if err != nil || quantity <= 0 {
		return nil, apperrors.NewValidationError("quantity", row.Quantity, "must be a positive integer")
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(row.Price), 64)
	if err != nil || price <= 0 {
		return nil, apperrors.NewValidationError("price", row.Price, "must be a positive number")
	}
	brokerage := 0.0
	if b := strings.TrimSpace(row.Brokerage); b != "" {
		brokerage, err = strconv.ParseFloat(b, 64)
		if err != nil || brokerage < 0 {
			return nil, apperrors.NewValidationError("brokerage", row.Brokerage, "must be a non-negative number")
		}
	}

	side, ok := sideAliases[strings.ToUpper(strings.TrimSpace(row.TradeType))]
	if !ok {
		return nil, apperrors.NewValidationError("trade_type", row.TradeType, "must be BUY or SELL")
	}

	return &models.Trade{
		TradeDate: tradeDate,
		ScripCode: scripCode,
		ScripName: strings.TrimSpace(row.ScripName),
		Quantity:  quantity,
		Price:     price,
		Side:      side,
		Brokerage: brokerage,
		Notes:     strings.TrimSpace(row.Notes),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("trade_date", s, "unrecognized date format")
}
