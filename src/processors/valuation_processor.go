package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/models"
)

var hundred = decimal.NewFromInt(100)

// PriceLookup resolves the price of a symbol at the valuation instant.
type PriceLookup func(symbol string) (decimal.Decimal, bool)

// NoPrices is a PriceLookup that never finds a price.
func NoPrices(string) (decimal.Decimal, bool) { return decimal.Zero, false }

// ResolveStrategy picks the valuation rule of an edit, in priority order
// Override, Manual, Tracked, CostBasis. A tracked holding whose price cannot be
// resolved falls back to cost basis. Amounts are converted with the edit's FX rate.
func ResolveStrategy(edit models.HoldingEdit, lookup PriceLookup) models.ValuationStrategy {
	fx := fxFactor(edit)
	switch {
	case edit.ValueOverride.Valid:
		return models.ValuationStrategy{Kind: models.StrategyOverride, Amount: edit.ValueOverride.Decimal.Mul(fx)}
	case edit.ManualPrice.Valid:
		return models.ValuationStrategy{Kind: models.StrategyManual, Amount: edit.ManualPrice.Decimal.Mul(fx)}
	case edit.AutoTrackPrice && edit.TrackedSymbol() != "":
		if lookup == nil {
			lookup = NoPrices
		}
		if price, ok := lookup(edit.TrackedSymbol()); ok {
			return models.ValuationStrategy{Kind: models.StrategyTracked, Amount: price.Mul(fx)}
		}
	}
	return models.ValuationStrategy{Kind: models.StrategyCostBasis, Amount: edit.UnitCost.Mul(fx)}
}

// ValueHolding values one edit.
func ValueHolding(edit models.HoldingEdit, lookup PriceLookup) models.ValuedHolding {
	strategy := ResolveStrategy(edit, lookup)
	unitCost := edit.UnitCost.Mul(fxFactor(edit))

	var value decimal.Decimal
	if strategy.Kind == models.StrategyOverride {
		value = strategy.Amount
	} else {
		value = edit.Shares.Mul(strategy.Amount)
	}

	contribution := edit.Shares.Mul(unitCost)
	if edit.ContributionOverride.Valid {
		contribution = edit.ContributionOverride.Decimal
	}

	gain := value.Sub(contribution)
	return models.ValuedHolding{
		GroupID:      edit.GroupID,
		AccountType:  edit.AccountType,
		AccountLabel: edit.AccountLabel,
		Category:     edit.Category,
		Name:         edit.Name,
		Symbol:       edit.TrackedSymbol(),
		Shares:       edit.Shares,
		UnitCost:     unitCost,
		Strategy:     strategy,
		Value:        value,
		Contribution: contribution,
		Gain:         gain,
		GainPercent:  Percent(gain, contribution),
	}
}

// ValueHoldings values every edit with the same lookup.
func ValueHoldings(edits []models.HoldingEdit, lookup PriceLookup) []models.ValuedHolding {
	valued := make([]models.ValuedHolding, 0, len(edits))
	for _, e := range edits {
		valued = append(valued, ValueHolding(e, lookup))
	}
	return valued
}

// Percent returns part / base * 100, or 0 when base <= 0.
func Percent(part, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return part.Div(base).Mul(hundred)
}

func fxFactor(edit models.HoldingEdit) decimal.Decimal {
	if edit.ConvertCurrency && edit.FXRate.Valid && edit.FXRate.Decimal.IsPositive() {
		return edit.FXRate.Decimal
	}
	return decimal.NewFromInt(1)
}
