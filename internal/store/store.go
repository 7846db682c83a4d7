// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"bse-portfolio/internal/models"
)

// LedgerStore defines the interface for the portfolio ledger. The trade
// ledger and alert history are append-only; positions are derived rows owned
// by the holdings aggregator.
type LedgerStore interface {
	// Trades (append-only ledger)
	AppendTrade(ctx context.Context, trade *models.Trade) (int64, error)
	ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)

	// Positions (single writer: the aggregator; patched by prices and actions)
	UpsertPosition(ctx context.Context, pos *models.Position) error
	GetPosition(ctx context.Context, scripCode string) (*models.Position, error)
	ListPositions(ctx context.Context, heldOnly bool) ([]models.Position, error)
	UpdateCurrentPrices(ctx context.Context, prices map[string]float64) error

	// Corporate actions
	ApplyCorporateAction(ctx context.Context, action *models.CorporateAction, pos *models.Position) error
	ListCorporateActions(ctx context.Context, filter ActionFilter) ([]models.CorporateAction, error)

	// Alert rules and history
	AddAlertRule(ctx context.Context, rule *models.AlertRule) (int64, error)
	GetAlertRule(ctx context.Context, id int64) (*models.AlertRule, error)
	ListAlertRules(ctx context.Context, scripCode string, activeOnly bool) ([]models.AlertRule, error)
	SetRuleActive(ctx context.Context, id int64, active bool) error
	DeleteRule(ctx context.Context, id int64) error
	RecordTrigger(ctx context.Context, event *models.AlertEvent) error
	ListAlertEvents(ctx context.Context, scripCode string, since time.Time) ([]models.AlertEvent, error)

	// Price history
	AddPriceBar(ctx context.Context, bar *models.PriceBar) error
	ListPriceBars(ctx context.Context, scripCode string, limit int) ([]models.PriceBar, error)

	// Maintenance
	Reset(ctx context.Context) error
	ResetTable(ctx context.Context, table string) error

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying trades. Results are ordered by
// trade_date then id (ledger order) unless Descending is set.
type TradeFilter struct {
	ScripCode  string
	Side       models.TradeSide
	StartDate  time.Time
	EndDate    time.Time
	Descending bool
	Limit      int
}

// ActionFilter represents filters for querying corporate actions.
type ActionFilter struct {
	ScripCode string
	Type      models.ActionType
}
