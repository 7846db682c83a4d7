// Package prices runs the batch price refresh: fetch quotes, record price
// history, patch position valuations and fire the alert pass.
package prices

import (
	"context"
	"fmt"
	"time"

	"bse-portfolio/internal/alerts"
	"bse-portfolio/internal/logging"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/quotes"
	"bse-portfolio/internal/store"
	"bse-portfolio/pkg/utils"
)

// Result summarizes one batch price update. Quote failures are per
// instrument and never abort the batch.
type Result struct {
	Total     int
	Success   int
	Failed    []string
	Alerts    []models.AlertEvent
	Timestamp time.Time
}

// Updater performs batch price updates.
type Updater struct {
	store    store.LedgerStore
	provider quotes.Provider
	engine   *alerts.Engine

	// Delay between consecutive quote requests, rate-limiting the provider.
	RequestDelay time.Duration
}

// NewUpdater creates a price updater. engine may be nil to skip the alert pass.
func NewUpdater(s store.LedgerStore, provider quotes.Provider, engine *alerts.Engine) *Updater {
	return &Updater{
		store:        s,
		provider:     provider,
		engine:       engine,
		RequestDelay: 500 * time.Millisecond,
	}
}

// UpdateHoldings refreshes prices for every held instrument plus any extra
// watchlist codes, then evaluates alerts against the new prices.
func (u *Updater) UpdateHoldings(ctx context.Context, extra []string) (*Result, error) {
	positions, err := u.store.ListPositions(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	previous := make(map[string]float64)
	var scrips []string
	seen := make(map[string]bool)
	for _, pos := range positions {
		scrips = append(scrips, pos.ScripCode)
		seen[pos.ScripCode] = true
		if pos.CurrentPrice > 0 {
			previous[pos.ScripCode] = pos.CurrentPrice
		}
	}
	for _, code := range extra {
		if !seen[code] {
			scrips = append(scrips, code)
			seen[code] = true
		}
	}

	return u.Update(ctx, scrips, previous)
}

// Update fetches quotes for the given instruments, records price history,
// patches position valuations in a single transaction and runs the alert
// pass. previous supplies reference prices for change alerts; pass nil to
// skip them.
func (u *Updater) Update(ctx context.Context, scrips []string, previous map[string]float64) (*Result, error) {
	logger := logging.FromContext(ctx)
	result := &Result{Total: len(scrips), Timestamp: time.Now()}

	prices := make(map[string]float64)
	today := time.Now().In(utils.IndiaLocation)

	for i, scrip := range scrips {
		if i > 0 && u.RequestDelay > 0 {
			select {
			case <-time.After(u.RequestDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		quote, err := u.provider.GetQuote(ctx, scrip)
		if err != nil {
			logger.Warn().Err(err).Str("scrip", scrip).Msg("Quote fetch failed, skipping")
			result.Failed = append(result.Failed, scrip)
			continue
		}

		prices[scrip] = quote.CurrentPrice
		result.Success++

		bar := &models.PriceBar{
			ScripCode: scrip,
			Date:      today,
			Open:      quote.Open,
			High:      quote.High,
			Low:       quote.Low,
			Close:     quote.CurrentPrice,
			Volume:    quote.Volume,
			Source:    u.provider.Name(),
		}
		if err := u.store.AddPriceBar(ctx, bar); err != nil {
			logger.Error().Err(err).Str("scrip", scrip).Msg("Failed to record price bar")
		}
	}

	if err := u.store.UpdateCurrentPrices(ctx, prices); err != nil {
		return nil, fmt.Errorf("failed to update prices: %w", err)
	}

	if u.engine != nil && len(prices) > 0 {
		events, err := u.engine.EvaluateAll(ctx, prices, previous)
		if err != nil {
			logger.Error().Err(err).Msg("Alert pass failed")
		}
		result.Alerts = events
	}

	logger.Info().
		Int("total", result.Total).
		Int("success", result.Success).
		Int("failed", len(result.Failed)).
		Int("alerts", len(result.Alerts)).
		Msg("Price update complete")

	return result, nil
}
