// Package portfolio implements holdings aggregation, corporate action
// adjustment and P&L valuation over the trade ledger.
package portfolio

import (
	"context"
	"fmt"
	"math"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/logging"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/store"
)

// ClampWarning records a SELL whose quantity exceeded the held quantity at
// replay time. The sell is clamped instead of rejected so that a historical
// ledger can always be replayed; new sells are rejected up front, see
// Aggregator.ValidateSell.
type ClampWarning struct {
	ScripCode string
	TradeID   int64
	Requested int64
	Clamped   int64
}

func (w ClampWarning) String() string {
	return fmt.Sprintf("%s: sell of %d clamped to %d held (trade %d)",
		w.ScripCode, w.Requested, w.Clamped, w.TradeID)
}

// Aggregator derives Position rows from the trade ledger. It is the single
// writer of positions; price updates and corporate actions only patch rows
// the aggregator created.
type Aggregator struct {
	store store.LedgerStore
}

// NewAggregator creates a new holdings aggregator.
func NewAggregator(s store.LedgerStore) *Aggregator {
	return &Aggregator{store: s}
}

// Rebuild replays the entire ledger and rewrites every position from
// scratch. Rebuilding is idempotent: the same ledger always yields the same
// positions. Clamp warnings are returned and logged, never fatal.
func (a *Aggregator) Rebuild(ctx context.Context) ([]models.Position, []ClampWarning, error) {
	trades, err := a.store.ListTrades(ctx, store.TradeFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list trades: %w", err)
	}

	logger := logging.FromContext(ctx)

	// Group by instrument, preserving first-seen order.
	var order []string
	byScrip := make(map[string][]models.Trade)
	for _, t := range trades {
		if _, seen := byScrip[t.ScripCode]; !seen {
			order = append(order, t.ScripCode)
		}
		byScrip[t.ScripCode] = append(byScrip[t.ScripCode], t)
	}

	var positions []models.Position
	var warnings []ClampWarning
	for _, scrip := range order {
		pos, warns := BuildPosition(byScrip[scrip])
		for _, w := range warns {
			logger.Warn().
				Str("scrip", w.ScripCode).
				Int64("trade_id", w.TradeID).
				Int64("requested", w.Requested).
				Int64("clamped", w.Clamped).
				Msg("Sell exceeds holdings, clamped")
		}
		warnings = append(warnings, warns...)

		if err := a.store.UpsertPosition(ctx, pos); err != nil {
			return nil, warnings, fmt.Errorf("failed to upsert position %s: %w", scrip, err)
		}
		positions = append(positions, *pos)
	}

	return positions, warnings, nil
}

// RebuildOne replays the ledger for a single instrument. Returns
// ErrNoHoldings if the instrument has no trades at all.
func (a *Aggregator) RebuildOne(ctx context.Context, scripCode string) (*models.Position, []ClampWarning, error) {
	trades, err := a.store.ListTrades(ctx, store.TradeFilter{ScripCode: scripCode})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list trades: %w", err)
	}
	if len(trades) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrNoHoldings, scripCode)
	}

	pos, warns := BuildPosition(trades)
	if err := a.store.UpsertPosition(ctx, pos); err != nil {
		return nil, warns, fmt.Errorf("failed to upsert position %s: %w", scripCode, err)
	}
	return pos, warns, nil
}

// BuildPosition replays one instrument's trades, already in ledger order
// (trade_date then id), into a Position using blended average cost:
//
//	BUY q @ p with brokerage b:  invested += q*p + b; quantity += q
//	SELL q: quantity -= q; invested -= q * (invested/quantity before the sell)
//
// Sells are clamped to the held quantity. The position keeps a quantity-0
// row after a full exit so history remains addressable.
func BuildPosition(trades []models.Trade) (*models.Position, []ClampWarning) {
	if len(trades) == 0 {
		return nil, nil
	}

	var (
		quantity int64
		invested float64
		warnings []ClampWarning
	)
	scripCode := trades[0].ScripCode
	scripName := trades[0].ScripName

	for _, t := range trades {
		if t.ScripName != "" {
			scripName = t.ScripName
		}
		switch t.Side {
		case models.SideBuy:
			invested += float64(t.Quantity)*t.Price + t.Brokerage
			quantity += t.Quantity
		case models.SideSell:
			sellQty := t.Quantity
			if sellQty > quantity {
				warnings = append(warnings, ClampWarning{
					ScripCode: scripCode,
					TradeID:   t.ID,
					Requested: t.Quantity,
					Clamped:   quantity,
				})
				sellQty = quantity
			}
			if sellQty == 0 {
				continue
			}
			avg := invested / float64(quantity)
			quantity -= sellQty
			invested -= float64(sellQty) * avg
		}
	}

	pos := &models.Position{
		ScripCode: scripCode,
		ScripName: scripName,
		Quantity:  quantity,
	}
	if quantity > 0 {
		// The raw accumulator is the cost basis; the average is derived
		// from it for display, never the other way around. Buy-only
		// ledgers therefore conserve sum(qty*price) + sum(brokerage)
		// exactly (to the paisa).
		pos.TotalInvested = round2(invested)
		pos.AvgBuyPrice = round2(pos.TotalInvested / float64(quantity))
	} else {
		// Fully exited: residual is rounding noise, report zero basis.
		pos.AvgBuyPrice = 0
		pos.TotalInvested = 0
	}

	return pos, warnings
}

// HeldQuantity replays the ledger to report the currently held quantity for
// an instrument. Used to reject short sales before they hit the ledger.
func (a *Aggregator) HeldQuantity(ctx context.Context, scripCode string) (int64, error) {
	trades, err := a.store.ListTrades(ctx, store.TradeFilter{ScripCode: scripCode})
	if err != nil {
		return 0, fmt.Errorf("failed to list trades: %w", err)
	}
	pos, _ := BuildPosition(trades)
	if pos == nil {
		return 0, nil
	}
	return pos.Quantity, nil
}

// ValidateSell rejects a SELL whose quantity exceeds the held quantity. The
// ledger stays append-only and replayable, so bad sells are stopped here
// rather than clamped after the fact.
func (a *Aggregator) ValidateSell(ctx context.Context, scripCode string, quantity int64) error {
	held, err := a.HeldQuantity(ctx, scripCode)
	if err != nil {
		return err
	}
	if quantity > held {
		return apperrors.NewValidationError("quantity", quantity,
			fmt.Sprintf("sell exceeds holdings (%d held)", held))
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
