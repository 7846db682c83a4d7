// Package quotes fetches market quotes for BSE-listed instruments.
package quotes

import (
	"context"

	"bse-portfolio/internal/config"
	"bse-portfolio/internal/models"
)

// Provider fetches the current quote for one instrument. A failure is
// per-instrument and non-fatal: the price updater skips the instrument for
// that round and aggregates failures into the batch result.
type Provider interface {
	// GetQuote returns the current quote for a scrip code.
	GetQuote(ctx context.Context, scripCode string) (*models.Quote, error)

	// Name identifies the provider in logs and price history rows.
	Name() string
}

// NewProvider builds the quote provider selected by configuration.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.Quotes.Source {
	case "kite":
		return NewKiteProvider(cfg.Quotes.KiteAPIKey, cfg.Quotes.KiteAccessToken, cfg.Quotes.KiteExchange), nil
	default:
		return NewBSEProvider(cfg.Quotes.Timeout(), cfg.Quotes.MaxRetries, cfg.Quotes.RetryDelay()), nil
	}
}
