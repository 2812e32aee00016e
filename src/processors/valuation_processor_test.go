package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliotracker/src/models"
)

func fixedPrice(price string) PriceLookup {
	return func(string) (decimal.Decimal, bool) { return dec(price), true }
}

func TestResolveStrategyPriority(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		opts   []func(*models.HoldingEdit)
		lookup PriceLookup
		kind   models.StrategyKind
		amount string
	}{
		{
			name:   "override wins over everything",
			opts:   []func(*models.HoldingEdit){tracked("X"), func(e *models.HoldingEdit) { e.ManualPrice = nd("50"); e.ValueOverride = nd("999") }},
			lookup: fixedPrice("120"),
			kind:   models.StrategyOverride,
			amount: "999",
		},
		{
			name:   "manual wins over tracked",
			opts:   []func(*models.HoldingEdit){tracked("X"), func(e *models.HoldingEdit) { e.ManualPrice = nd("50") }},
			lookup: fixedPrice("120"),
			kind:   models.StrategyManual,
			amount: "50",
		},
		{
			name:   "tracked with price",
			opts:   []func(*models.HoldingEdit){tracked("X")},
			lookup: fixedPrice("120"),
			kind:   models.StrategyTracked,
			amount: "120",
		},
		{
			name:   "tracked without price falls back",
			opts:   []func(*models.HoldingEdit){tracked("X")},
			lookup: NoPrices,
			kind:   models.StrategyCostBasis,
			amount: "100",
		},
		{
			name:   "tracked without symbol falls back",
			opts:   []func(*models.HoldingEdit){tracked("")},
			lookup: fixedPrice("120"),
			kind:   models.StrategyCostBasis,
			amount: "100",
		},
		{
			name:   "untracked ignores prices",
			lookup: fixedPrice("120"),
			kind:   models.StrategyCostBasis,
			amount: "100",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := ResolveStrategy(edit(1, "a", day(1), tt.opts...), tt.lookup)
			require.Equal(t, tt.kind, s.Kind)
			require.True(t, s.Amount.Equal(dec(tt.amount)), "amount %s", s.Amount)
		})
	}
}

func TestCostBasisFallbackScenario(t *testing.T) {
	t.Parallel()
	// 10 shares @ 100, no price observations at all.
	v := ValueHolding(edit(1, "a", day(1), tracked("ABC")), NewPriceSeries(nil).Lookup("2024-01-02"))
	require.Equal(t, models.StrategyCostBasis, v.Strategy.Kind)
	require.True(t, v.Value.Equal(dec("1000")))
	require.True(t, v.Contribution.Equal(dec("1000")))
	require.True(t, v.Gain.IsZero())
	require.True(t, v.GainPercent.IsZero())
}

func TestPriceAddedLaterScenario(t *testing.T) {
	t.Parallel()
	ledger := NewLedger([]models.HoldingEdit{edit(1, "a", day(1), tracked("ABC"))})
	prices := NewPriceSeries([]models.PriceObservation{obs("ABC", models.DateKey(day(5)), "120")})

	asOf3 := ledger.HoldingsAsOf(day(3))
	require.Len(t, asOf3, 1)
	require.Equal(t, int64(1), asOf3[0].ID)
	_, found := prices.PriceAsOf("ABC", models.DateKey(day(3)))
	require.False(t, found)
	v3 := ValueHolding(asOf3[0], prices.Lookup(models.DateKey(day(3))))
	require.Equal(t, models.StrategyCostBasis, v3.Strategy.Kind)
	require.True(t, v3.Value.Equal(dec("1000")))

	v6 := ValueHolding(ledger.HoldingsAsOf(day(6))[0], prices.Lookup(models.DateKey(day(6))))
	require.Equal(t, models.StrategyTracked, v6.Strategy.Kind)
	require.True(t, v6.Value.Equal(dec("1200")))
	require.True(t, v6.Gain.Equal(dec("200")))
	require.True(t, v6.GainPercent.Equal(dec("20")))
}

func TestValueOverrideIgnoresShares(t *testing.T) {
	t.Parallel()
	withOverride := func(e *models.HoldingEdit) { e.ValueOverride = nd("2500") }
	before := ValueHolding(edit(1, "a", day(1), tracked("X"), withOverride), fixedPrice("120"))
	after := ValueHolding(edit(2, "a", day(2), tracked("X"), withOverride, withShares("999")), fixedPrice("130"))
	require.True(t, before.Value.Equal(dec("2500")))
	require.True(t, after.Value.Equal(before.Value))
}

func TestContributionOverride(t *testing.T) {
	t.Parallel()
	v := ValueHolding(edit(1, "a", day(1), func(e *models.HoldingEdit) {
		e.ContributionOverride = nd("800")
	}), NoPrices)
	require.True(t, v.Contribution.Equal(dec("800")))
	require.True(t, v.Gain.Equal(dec("200")))
	require.True(t, v.GainPercent.Equal(dec("25")))
}

func TestZeroContributionGuardsGainPercent(t *testing.T) {
	t.Parallel()
	v := ValueHolding(edit(1, "a", day(1), func(e *models.HoldingEdit) {
		e.UnitCost = decimal.Zero
		e.ManualPrice = nd("5")
	}), NoPrices)
	require.True(t, v.Contribution.IsZero())
	require.True(t, v.Value.Equal(dec("50")))
	require.True(t, v.GainPercent.IsZero())

	negative := ValueHolding(edit(2, "b", day(1), func(e *models.HoldingEdit) {
		e.ContributionOverride = nd("-10")
	}), NoPrices)
	require.True(t, negative.GainPercent.IsZero())
}

func TestCurrencyConversionUsesStoredRate(t *testing.T) {
	t.Parallel()
	convert := func(e *models.HoldingEdit) {
		e.ConvertCurrency = true
		e.Currency = "USD"
		e.FXRate = nd("1.5")
	}

	costBasis := ValueHolding(edit(1, "a", day(1), convert), NoPrices)
	require.True(t, costBasis.Value.Equal(dec("1500")))
	require.True(t, costBasis.Contribution.Equal(dec("1500")))

	trackedV := ValueHolding(edit(1, "a", day(1), convert, tracked("SPY")), fixedPrice("120"))
	require.True(t, trackedV.Value.Equal(dec("1800")))

	manual := ValueHolding(edit(1, "a", day(1), convert, func(e *models.HoldingEdit) { e.ManualPrice = nd("110") }), NoPrices)
	require.True(t, manual.Value.Equal(dec("1650")))

	override := ValueHolding(edit(1, "a", day(1), convert, func(e *models.HoldingEdit) { e.ValueOverride = nd("100") }), NoPrices)
	require.True(t, override.Value.Equal(dec("150")))

	// A flagged edit without a stored rate is valued unconverted.
	noRate := ValueHolding(edit(1, "a", day(1), func(e *models.HoldingEdit) { e.ConvertCurrency = true }), NoPrices)
	require.True(t, noRate.Value.Equal(dec("1000")))
}

func TestPercent(t *testing.T) {
	t.Parallel()
	require.True(t, Percent(dec("5"), dec("0")).IsZero())
	require.True(t, Percent(dec("5"), dec("-1")).IsZero())
	require.True(t, Percent(dec("5"), dec("50")).Equal(dec("10")))
}
