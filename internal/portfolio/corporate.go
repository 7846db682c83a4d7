package portfolio

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "bse-portfolio/internal/errors"
	"bse-portfolio/internal/logging"
	"bse-portfolio/internal/models"
	"bse-portfolio/internal/store"
)

// Adjuster applies corporate actions to positions. Dividends are audit-only;
// bonus and split overwrite the position's quantity and cost basis. Each
// action is atomic: the audit row and the position patch commit together.
type Adjuster struct {
	store store.LedgerStore
}

// NewAdjuster creates a new corporate action adjuster.
func NewAdjuster(s store.LedgerStore) *Adjuster {
	return &Adjuster{store: s}
}

// ParseRatio parses an "m:n" ratio string. Both parts must be strictly
// positive integers and the string must contain exactly one ':'.
func ParseRatio(ratio string) (int64, int64, error) {
	parts := strings.Split(ratio, ":")
	if len(parts) != 2 {
		return 0, 0, &apperrors.RatioError{Ratio: ratio}
	}
	m, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || m <= 0 {
		return 0, 0, &apperrors.RatioError{Ratio: ratio}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || n <= 0 {
		return 0, 0, &apperrors.RatioError{Ratio: ratio}
	}
	return m, n, nil
}

// heldPosition fetches a position that must exist and hold shares.
func (a *Adjuster) heldPosition(ctx context.Context, scripCode string) (*models.Position, error) {
	pos, err := a.store.GetPosition(ctx, scripCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	if pos == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrScripNotFound, scripCode)
	}
	if !pos.Held() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNoHoldings, scripCode)
	}
	return pos, nil
}

// RecordDividend records a cash dividend. The position is never mutated; the
// audit row carries the held quantity and the total amount received.
func (a *Adjuster) RecordDividend(ctx context.Context, scripCode string, actionDate time.Time, amountPerShare float64, notes string) (*models.CorporateAction, error) {
	if amountPerShare <= 0 {
		return nil, apperrors.NewValidationError("amount", amountPerShare, "must be positive")
	}

	pos, err := a.heldPosition(ctx, scripCode)
	if err != nil {
		return nil, err
	}

	total := float64(pos.Quantity) * amountPerShare
	action := &models.CorporateAction{
		ActionDate: actionDate,
		ScripCode:  scripCode,
		ScripName:  pos.ScripName,
		Type:       models.ActionDividend,
		Quantity:   pos.Quantity,
		Amount:     round2(total),
		Notes:      notes,
	}
	if err := a.store.ApplyCorporateAction(ctx, action, nil); err != nil {
		return nil, err
	}

	logging.LogCorporateAction(logging.FromContext(ctx), scripCode, string(models.ActionDividend), "", 0)
	return action, nil
}

// ApplyBonus applies a bonus issue with ratio "b:h" (b free shares per h
// held). The cost basis is unchanged and spreads over the larger quantity.
func (a *Adjuster) ApplyBonus(ctx context.Context, scripCode string, actionDate time.Time, ratio, notes string) (*models.Position, error) {
	b, h, err := ParseRatio(ratio)
	if err != nil {
		return nil, err
	}

	pos, err := a.heldPosition(ctx, scripCode)
	if err != nil {
		return nil, err
	}

	bonusQty := (pos.Quantity / h) * b
	pos.Quantity += bonusQty
	pos.AvgBuyPrice = round2(pos.TotalInvested / float64(pos.Quantity))

	action := &models.CorporateAction{
		ActionDate: actionDate,
		ScripCode:  scripCode,
		ScripName:  pos.ScripName,
		Type:       models.ActionBonus,
		Quantity:   bonusQty,
		Ratio:      ratio,
		Notes:      notes,
	}
	if err := a.store.ApplyCorporateAction(ctx, action, pos); err != nil {
		return nil, err
	}

	logging.LogCorporateAction(logging.FromContext(ctx), scripCode, string(models.ActionBonus), ratio, bonusQty)
	return pos, nil
}

// ApplySplit applies a stock split with ratio "o:n" (o old shares become n
// new). Quantity scales by n/o, average cost by o/n; invested is recomputed
// from the new quantity and average, accepting rounding drift.
func (a *Adjuster) ApplySplit(ctx context.Context, scripCode string, actionDate time.Time, ratio, notes string) (*models.Position, error) {
	o, n, err := ParseRatio(ratio)
	if err != nil {
		return nil, err
	}

	pos, err := a.heldPosition(ctx, scripCode)
	if err != nil {
		return nil, err
	}

	oldQty := pos.Quantity
	multiplier := float64(n) / float64(o)
	pos.Quantity = (oldQty * n) / o
	pos.AvgBuyPrice = round2(pos.AvgBuyPrice / multiplier)
	pos.TotalInvested = round2(float64(pos.Quantity) * pos.AvgBuyPrice)

	action := &models.CorporateAction{
		ActionDate: actionDate,
		ScripCode:  scripCode,
		ScripName:  pos.ScripName,
		Type:       models.ActionSplit,
		Quantity:   pos.Quantity - oldQty,
		Ratio:      ratio,
		Notes:      notes,
	}
	if err := a.store.ApplyCorporateAction(ctx, action, pos); err != nil {
		return nil, err
	}

	logging.LogCorporateAction(logging.FromContext(ctx), scripCode, string(models.ActionSplit), ratio, pos.Quantity-oldQty)
	return pos, nil
}
