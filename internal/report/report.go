// Package report writes portfolio CSV reports.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"bse-portfolio/internal/logging"
	"bse-portfolio/internal/portfolio"
	"bse-portfolio/internal/store"
)

// Generator writes summary, holdings and trades CSVs for a portfolio.
type Generator struct {
	store    store.LedgerStore
	valuator *portfolio.Valuator
	outDir   string
}

// NewGenerator creates a report generator writing into outDir.
func NewGenerator(s store.LedgerStore, outDir string) *Generator {
	return &Generator{store: s, valuator: portfolio.NewValuator(s), outDir: outDir}
}

type summaryRow struct {
	GeneratedAt     string  `csv:"generated_at"`
	TotalStocks     int     `csv:"total_stocks"`
	TotalInvested   float64 `csv:"total_invested"`
	CurrentValue    float64 `csv:"current_value"`
	TotalPnL        float64 `csv:"total_pnl"`
	TotalPnLPercent float64 `csv:"total_pnl_percent"`
	RealizedPnL     float64 `csv:"realized_pnl"`
	Gainers         int     `csv:"gainers"`
	Losers          int     `csv:"losers"`
}

type holdingRow struct {
	ScripCode     string  `csv:"scrip_code"`
	ScripName     string  `csv:"scrip_name"`
	Quantity      int64   `csv:"quantity"`
	AvgBuyPrice   float64 `csv:"avg_buy_price"`
	TotalInvested float64 `csv:"total_invested"`
	CurrentPrice  float64 `csv:"current_price"`
	CurrentValue  float64 `csv:"current_value"`
	PnL           float64 `csv:"pnl"`
	PnLPercent    float64 `csv:"pnl_percent"`
}

type tradeRow struct {
	TradeDate string  `csv:"trade_date"`
	ScripCode string  `csv:"scrip_code"`
	ScripName string  `csv:"scrip_name"`
	Side      string  `csv:"trade_type"`
	Quantity  int64   `csv:"quantity"`
	Price     float64 `csv:"price"`
	Value     float64 `csv:"total_value"`
	Brokerage float64 `csv:"brokerage"`
	Notes     string  `csv:"notes"`
}

// Generate writes the three report files and returns their paths. The base
// name carries a timestamp so repeated runs never overwrite.
func (g *Generator) Generate(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(g.outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}

	base := fmt.Sprintf("portfolio_%s", time.Now().Format("20060102_150405"))
	var paths []string

	summaryPath := filepath.Join(g.outDir, base+"_summary.csv")
	if err := g.writeSummary(ctx, summaryPath); err != nil {
		return nil, err
	}
	paths = append(paths, summaryPath)

	holdingsPath := filepath.Join(g.outDir, base+"_holdings.csv")
	if err := g.writeHoldings(ctx, holdingsPath); err != nil {
		return nil, err
	}
	paths = append(paths, holdingsPath)

	tradesPath := filepath.Join(g.outDir, base+"_trades.csv")
	if err := g.writeTrades(ctx, tradesPath); err != nil {
		return nil, err
	}
	paths = append(paths, tradesPath)

	logger := logging.FromContext(ctx)
	logger.Info().Strs("files", paths).Msg("Reports generated")
	return paths, nil
}

func (g *Generator) writeSummary(ctx context.Context, path string) error {
	summary, err := g.valuator.Summary(ctx)
	if err != nil {
		return err
	}

	rows := []summaryRow{{
		GeneratedAt:     time.Now().Format(time.RFC3339),
		TotalStocks:     summary.TotalStocks,
		TotalInvested:   summary.TotalInvested,
		CurrentValue:    summary.CurrentValue,
		TotalPnL:        summary.TotalPnL,
		TotalPnLPercent: summary.TotalPnLPercent,
		RealizedPnL:     summary.TotalRealizedPnL,
		Gainers:         summary.Gainers,
		Losers:          summary.Losers,
	}}
	return writeCSV(path, &rows)
}

func (g *Generator) writeHoldings(ctx context.Context, path string) error {
	positions, err := g.store.ListPositions(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list positions: %w", err)
	}

	rows := make([]holdingRow, 0, len(positions))
	for _, pos := range positions {
		rows = append(rows, holdingRow{
			ScripCode:     pos.ScripCode,
			ScripName:     pos.ScripName,
			Quantity:      pos.Quantity,
			AvgBuyPrice:   pos.AvgBuyPrice,
			TotalInvested: pos.TotalInvested,
			CurrentPrice:  pos.CurrentPrice,
			CurrentValue:  pos.CurrentValue,
			PnL:           pos.ProfitLoss,
			PnLPercent:    pos.ProfitLossPercent,
		})
	}
	return writeCSV(path, &rows)
}

func (g *Generator) writeTrades(ctx context.Context, path string) error {
	trades, err := g.store.ListTrades(ctx, store.TradeFilter{})
	if err != nil {
		return fmt.Errorf("failed to list trades: %w", err)
	}

	rows := make([]tradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, tradeRow{
			TradeDate: t.TradeDate.Format("2006-01-02"),
			ScripCode: t.ScripCode,
			ScripName: t.ScripName,
			Side:      string(t.Side),
			Quantity:  t.Quantity,
			Price:     t.Price,
			Value:     t.TotalValue,
			Brokerage: t.Brokerage,
			Notes:     t.Notes,
		})
	}
	return writeCSV(path, &rows)
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RealizedReport writes one realized-P&L CSV for an instrument (or all
// instruments when scripCode is empty) and returns its path.
func (g *Generator) RealizedReport(ctx context.Context, scripCode string) (string, error) {
	if err := os.MkdirAll(g.outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	var scrips []string
	if scripCode != "" {
		scrips = []string{scripCode}
	} else {
		positions, err := g.store.ListPositions(ctx, false)
		if err != nil {
			return "", fmt.Errorf("failed to list positions: %w", err)
		}
		for _, pos := range positions {
			scrips = append(scrips, pos.ScripCode)
		}
	}

	type realizedRow struct {
		TradeDate   string  `csv:"trade_date"`
		ScripCode   string  `csv:"scrip_code"`
		Quantity    int64   `csv:"quantity"`
		AvgBuyPrice float64 `csv:"avg_buy_price"`
		SellPrice   float64 `csv:"sell_price"`
		RealizedPnL float64 `csv:"realized_pnl"`
		PnLPercent  float64 `csv:"pnl_percent"`
	}

	var rows []realizedRow
	for _, scrip := range scrips {
		records, err := g.valuator.RealizedPnL(ctx, scrip)
		if err != nil {
			return "", err
		}
		for _, rec := range records {
			rows = append(rows, realizedRow{
				TradeDate:   rec.TradeDate.Format("2006-01-02"),
				ScripCode:   rec.ScripCode,
				Quantity:    rec.Quantity,
				AvgBuyPrice: rec.AvgBuyPrice,
				SellPrice:   rec.SellPrice,
				RealizedPnL: rec.RealizedPnL,
				PnLPercent:  rec.PnLPercent,
			})
		}
	}

	path := filepath.Join(g.outDir, fmt.Sprintf("realized_%s.csv", time.Now().Format("20060102_150405")))
	if err := writeCSV(path, &rows); err != nil {
		return "", err
	}
	return path, nil
}
