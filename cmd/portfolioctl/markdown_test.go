package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliotracker/src/model"
	"github.com/username/portfoliotracker/src/models"
)

func TestFormatMoney(t *testing.T) {
	t.Parallel()
	require.Equal(t, "$1,234.50", formatMoney(decimal.RequireFromString("1234.5"), "USD"))
	require.Equal(t, "$0.01", formatMoney(decimal.RequireFromString("0.005"), "USD"))
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()
	require.Equal(t, "+20.00%", formatPercent(decimal.NewFromInt(20)))
	require.Equal(t, "0.00%", formatPercent(decimal.Zero))
	require.Equal(t, "-3.33%", formatPercent(decimal.RequireFromString("-3.333")))
}

func TestHoldingsMarkdown(t *testing.T) {
	t.Parallel()
	holdings := []models.ValuedHolding{{
		AccountType:  "TFSA",
		Category:     "Equity",
		Name:         "A|B fund",
		Strategy:     models.ValuationStrategy{Kind: models.StrategyTracked},
		Value:        decimal.NewFromInt(1200),
		Contribution: decimal.NewFromInt(1000),
		GainPercent:  decimal.NewFromInt(20),
	}}
	totals := models.Totals{Value: decimal.NewFromInt(1200), Contribution: decimal.NewFromInt(1000), Gain: decimal.NewFromInt(200), GainPercent: decimal.NewFromInt(20)}

	md := holdingsMarkdown("alice", holdings, totals, "USD")
	require.Contains(t, md, "# Holdings of alice")
	require.Contains(t, md, `| TFSA | Equity | A\|B fund | tracked | $1,200.00 | $1,000.00 | +20.00% |`)
	require.Contains(t, md, "**Total** $1,200.00, contributed $1,000.00, gain $200.00 (+20.00%)")

	require.Contains(t, holdingsMarkdown("bob", nil, models.Totals{}, "USD"), "No holdings.")
}

func TestMovementMarkdown(t *testing.T) {
	t.Parallel()
	since := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 20, 15, 5, 0, 0, time.UTC)
	m := models.MovementResult{
		Range:         "7d",
		Mode:          models.RebaseRatio,
		CurrentValue:  decimal.NewFromInt(1100),
		PreviousValue: decimal.NewFromInt(1000),
		Change:        decimal.NewFromInt(100),
		ChangePercent: decimal.NewFromInt(10),
		Since:         since,
		Points: []models.MovementPoint{
			{Timestamp: since, Value: decimal.NewFromInt(1000)},
			{Timestamp: now, Value: decimal.NewFromInt(1100)},
		},
	}
	md := movementMarkdown(m, "USD")
	require.Contains(t, md, "# Movement over 7d (rebased)")
	require.Contains(t, md, "Value $1,100.00, $100.00 since 2024-03-13 (+10.00%)")
	require.Contains(t, md, "| 2024-03-20 15:05 | $1,100.00 |")
}

func TestStatsMarkdown(t *testing.T) {
	t.Parallel()
	md := statsMarkdown(model.LedgerStats{Edits: 4, Groups: 2, Users: 1}, model.PriceStats{Observations: 3, Symbols: 1, FirstDate: "2024-01-02", LastDate: "2024-02-15"})
	require.Contains(t, md, "- 4 edits")
	require.Contains(t, md, "- from 2024-01-02 to 2024-02-15")
	require.NotContains(t, statsMarkdown(model.LedgerStats{}, model.PriceStats{}), "from")
}
