package portfolio

import (
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"bse-portfolio/internal/models"
)

type tradeSpec struct {
	Qty       int64
	Price     float64
	Brokerage float64
	Buy       bool
}

func genTradeSpec() gopter.Gen {
	return gen.Struct(reflect.TypeOf(tradeSpec{}), map[string]gopter.Gen{
		"Qty":       gen.Int64Range(1, 500),
		"Price":     gen.Float64Range(1, 5000),
		"Brokerage": gen.Float64Range(0, 100),
		"Buy":       gen.Bool(),
	})
}

func tradesFromSpecs(specs []tradeSpec) []models.Trade {
	base := date("2024-01-01")
	trades := make([]models.Trade, 0, len(specs))
	for i, sp := range specs {
		side := models.SideSell
		if sp.Buy {
			side = models.SideBuy
		}
		trades = append(trades, models.Trade{
			ID:        int64(i + 1),
			TradeDate: base.Add(time.Duration(i) * 24 * time.Hour),
			ScripCode: "500325",
			Quantity:  sp.Qty,
			Price:     sp.Price,
			Side:      side,
			Brokerage: sp.Brokerage,
		})
	}
	return trades
}

// TestProperty_AggregationIdempotent verifies that replaying the same ledger
// twice yields identical positions: aggregation recomputes from scratch and
// carries no hidden state.
func TestProperty_AggregationIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("replaying the same ledger twice yields the same position", prop.ForAll(
		func(specs []tradeSpec) bool {
			trades := tradesFromSpecs(specs)
			first, _ := BuildPosition(trades)
			second, _ := BuildPosition(trades)

			if first == nil || second == nil {
				return first == second
			}
			if first.Quantity != second.Quantity ||
				first.AvgBuyPrice != second.AvgBuyPrice ||
				first.TotalInvested != second.TotalInvested {
				t.Logf("FAILED: first %+v, second %+v", first, second)
				return false
			}
			return true
		},
		gen.SliceOf(genTradeSpec()),
	))

	properties.TestingRun(t)
}

// TestProperty_AvgDerivedFromInvested verifies the cost-basis relationship
// for every held position: the stored invested amount is the source of truth
// and the average is its rounded per-share ratio, never the other way
// around. The product qty*avg may therefore drift from invested by up to
// half a paisa per share, but no further.
func TestProperty_AvgDerivedFromInvested(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("avg is the rounded ratio of invested to quantity", prop.ForAll(
		func(specs []tradeSpec) bool {
			trades := tradesFromSpecs(specs)
			pos, _ := BuildPosition(trades)
			if pos == nil || pos.Quantity == 0 {
				return true
			}

			wantAvg := math.Round(pos.TotalInvested/float64(pos.Quantity)*100) / 100
			if pos.AvgBuyPrice != wantAvg {
				t.Logf("FAILED: qty=%d invested=%v avg=%v, want %v",
					pos.Quantity, pos.TotalInvested, pos.AvgBuyPrice, wantAvg)
				return false
			}

			drift := math.Abs(pos.TotalInvested - float64(pos.Quantity)*pos.AvgBuyPrice)
			if drift > 0.005*float64(pos.Quantity)+1e-9 {
				t.Logf("FAILED: qty=%d avg=%v invested=%v drift=%v",
					pos.Quantity, pos.AvgBuyPrice, pos.TotalInvested, drift)
				return false
			}
			return true
		},
		gen.SliceOf(genTradeSpec()),
	))

	properties.TestingRun(t)
}

// TestProperty_QuantityNeverNegative verifies that no ledger, however
// pathological, can drive a position's quantity below zero, and that every
// clamped sell is observable as a warning.
func TestProperty_QuantityNeverNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("quantity stays non-negative, clamps produce warnings", prop.ForAll(
		func(specs []tradeSpec) bool {
			trades := tradesFromSpecs(specs)
			pos, warnings := BuildPosition(trades)
			if pos == nil {
				return len(trades) == 0
			}
			if pos.Quantity < 0 {
				t.Logf("FAILED: negative quantity %d", pos.Quantity)
				return false
			}
			for _, w := range warnings {
				if w.Clamped > w.Requested {
					t.Logf("FAILED: warning clamped %d above requested %d", w.Clamped, w.Requested)
					return false
				}
			}
			return true
		},
		gen.SliceOf(genTradeSpec()),
	))

	properties.TestingRun(t)
}

// TestProperty_BuyOnlyConservation verifies that a buy-only ledger conserves
// both quantity and money exactly: invested is the full purchase cost plus
// brokerage to the paisa, with the average derived from it.
func TestProperty_BuyOnlyConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("buy-only ledgers conserve quantity and cost", prop.ForAll(
		func(specs []tradeSpec) bool {
			if len(specs) == 0 {
				return true
			}
			for i := range specs {
				specs[i].Buy = true
			}
			trades := tradesFromSpecs(specs)
			pos, warnings := BuildPosition(trades)

			if len(warnings) != 0 {
				t.Logf("FAILED: buy-only ledger produced warnings %v", warnings)
				return false
			}

			var wantQty int64
			var raw float64
			for _, tr := range trades {
				wantQty += tr.Quantity
				raw += float64(tr.Quantity)*tr.Price + tr.Brokerage
			}

			if pos.Quantity != wantQty {
				t.Logf("FAILED: quantity %d, want %d", pos.Quantity, wantQty)
				return false
			}
			wantInvested := math.Round(raw*100) / 100
			if pos.TotalInvested != wantInvested {
				t.Logf("FAILED: invested %v, want %v (raw %v)", pos.TotalInvested, wantInvested, raw)
				return false
			}
			wantAvg := math.Round(wantInvested/float64(wantQty)*100) / 100
			if pos.AvgBuyPrice != wantAvg {
				t.Logf("FAILED: avg %v, want %v", pos.AvgBuyPrice, wantAvg)
				return false
			}
			return true
		},
		gen.SliceOf(genTradeSpec()),
	))

	properties.TestingRun(t)
}

// TestProperty_RatioRoundTrip verifies that any pair of positive integers
// formatted as "m:n" parses back to the same pair.
func TestProperty_RatioRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("positive integer pairs round-trip through the ratio format", prop.ForAll(
		func(m, n int64) bool {
			gotM, gotN, err := ParseRatio(fmt.Sprintf("%d:%d", m, n))
			if err != nil {
				t.Logf("FAILED: unexpected error %v for %d:%d", err, m, n)
				return false
			}
			return gotM == m && gotN == n
		},
		gen.Int64Range(1, 1000),
		gen.Int64Range(1, 1000),
	))

	properties.TestingRun(t)
}
