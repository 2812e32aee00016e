package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliotracker/src/models"
)

var day0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.AddDate(0, 0, n) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

// edit builds a holding edit with sensible defaults.
func edit(id int64, group string, at time.Time, opts ...func(*models.HoldingEdit)) models.HoldingEdit {
	e := models.HoldingEdit{
		ID:           id,
		GroupID:      group,
		UserID:       "alice",
		SequenceTime: at,
		AccountType:  "TFSA",
		Category:     "Equity",
		Name:         group,
		Shares:       dec("10"),
		UnitCost:     dec("100"),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func deleted(e *models.HoldingEdit) { e.IsDeleted = true }

func withShares(s string) func(*models.HoldingEdit) {
	return func(e *models.HoldingEdit) { e.Shares = dec(s) }
}

func withAccount(account string) func(*models.HoldingEdit) {
	return func(e *models.HoldingEdit) { e.AccountType = account }
}

func tracked(symbol string) func(*models.HoldingEdit) {
	return func(e *models.HoldingEdit) {
		e.AutoTrackPrice = true
		e.InstrumentSymbol = symbol
	}
}

func groupIDs(edits []models.HoldingEdit) []string {
	ids := make([]string, 0, len(edits))
	for _, e := range edits {
		ids = append(ids, e.GroupID)
	}
	return ids
}

func TestCurrentHoldingsUsesLatestEdit(t *testing.T) {
	t.Parallel()
	ledger := NewLedger([]models.HoldingEdit{
		edit(1, "a", day(1)),
		edit(2, "a", day(2), withShares("20")),
		edit(3, "b", day(1)),
		edit(4, "b", day(3), deleted),
		edit(5, "c", day(1)),
		edit(6, "c", day(2), deleted),
		edit(7, "c", day(4), withShares("5")),
	})

	current := ledger.CurrentHoldings()
	require.Equal(t, []string{"a", "c"}, groupIDs(current))
	require.True(t, current[0].Shares.Equal(dec("20")))
	require.True(t, current[1].Shares.Equal(dec("5")))
}

func TestHoldingsAsOf(t *testing.T) {
	t.Parallel()
	ledger := NewLedger([]models.HoldingEdit{
		edit(1, "a", day(1)),
		edit(2, "a", day(5), withShares("20")),
		edit(3, "b", day(3)),
		edit(4, "b", day(6), deleted),
	})

	require.Empty(t, ledger.HoldingsAsOf(day(0)))

	asOf2 := ledger.HoldingsAsOf(day(2))
	require.Equal(t, []string{"a"}, groupIDs(asOf2))
	require.True(t, asOf2[0].Shares.Equal(dec("10")))

	asOf5 := ledger.HoldingsAsOf(day(5))
	require.Equal(t, []string{"a", "b"}, groupIDs(asOf5))
	require.True(t, asOf5[0].Shares.Equal(dec("20")))

	require.Equal(t, []string{"a"}, groupIDs(ledger.HoldingsAsOf(day(6))))
}

func TestHoldingsAsOfMonotonicVisibility(t *testing.T) {
	t.Parallel()
	edits := []models.HoldingEdit{
		edit(1, "a", day(1)),
		edit(2, "a", day(3), withShares("11")),
		edit(3, "a", day(7), withShares("12")),
		edit(4, "b", day(2)),
		edit(5, "b", day(4), deleted),
	}
	ledger := NewLedger(edits)

	for d := 0; d <= 8; d++ {
		at := day(d)
		resolved := make(map[string]models.HoldingEdit)
		for _, h := range ledger.HoldingsAsOf(at) {
			resolved[h.GroupID] = h
		}
		for _, e := range edits {
			got, present := resolved[e.GroupID]
			if e.SequenceTime.After(at) {
				if present {
					require.NotEqual(t, e.ID, got.ID, "edit %d is after day %d", e.ID, d)
				}
				continue
			}
			// The resolved edit can only be this one or a later visible one.
			if present {
				require.False(t, got.SequenceTime.After(at))
				require.False(t, e.SupersedesEdit(got), "edit %d hidden at day %d", e.ID, d)
			}
		}
	}
}

func TestTieBreakOnEqualSequenceTime(t *testing.T) {
	t.Parallel()
	ledger := NewLedger([]models.HoldingEdit{
		edit(2, "a", day(1), withShares("2")),
		edit(1, "a", day(1), withShares("1")),
	})
	current := ledger.CurrentHoldings()
	require.Len(t, current, 1)
	require.Equal(t, int64(2), current[0].ID)

	deletedLater := NewLedger([]models.HoldingEdit{
		edit(1, "a", day(1)),
		edit(2, "a", day(1), deleted),
	})
	require.Empty(t, deletedLater.CurrentHoldings())
	require.Empty(t, deletedLater.HoldingsAsOf(day(1)))
}

func TestCurrentLabelsIncludeDeletedGroups(t *testing.T) {
	t.Parallel()
	ledger := NewLedger([]models.HoldingEdit{
		edit(1, "a", day(1), withAccount("RRSP")),
		edit(2, "a", day(2), withAccount("TFSA")),
		edit(3, "b", day(1), withAccount("Cash")),
		edit(4, "b", day(2), withAccount("Cash"), deleted),
	})
	labels := ledger.CurrentLabels()
	require.Equal(t, models.Labels{AccountType: "TFSA", Category: "Equity"}, labels["a"])
	require.Equal(t, "Cash", labels["b"].AccountType)
}

func TestEarliestAndGroup(t *testing.T) {
	t.Parallel()
	empty := NewLedger(nil)
	_, ok := empty.Earliest()
	require.False(t, ok)

	ledger := NewLedger([]models.HoldingEdit{
		edit(1, "a", day(3)),
		edit(2, "b", day(1)),
		edit(3, "b", day(2), deleted),
	})
	earliest, ok := ledger.Earliest()
	require.True(t, ok)
	require.True(t, earliest.Equal(day(1)))

	a, ok := ledger.Group("a")
	require.True(t, ok)
	require.Equal(t, int64(1), a.ID)
	_, ok = ledger.Group("b")
	require.False(t, ok)
	_, ok = ledger.Group("missing")
	require.False(t, ok)
}

func TestTrackedSymbols(t *testing.T) {
	t.Parallel()
	ledger := NewLedger([]models.HoldingEdit{
		edit(1, "a", day(1), tracked("vfv.to")),
		edit(2, "b", day(1), tracked("XEQT.TO"), func(e *models.HoldingEdit) { e.LookupSymbol = "xeqt" }),
		edit(3, "c", day(1), tracked("ZAG.TO")),
		edit(4, "c", day(2), deleted),
		edit(5, "d", day(1), tracked("VFV.TO")),
		edit(6, "e", day(1), tracked("OVR"), func(e *models.HoldingEdit) { e.ValueOverride = nd("5") }),
		edit(7, "f", day(1)),
	})
	require.Equal(t, []string{"VFV.TO", "XEQT"}, ledger.TrackedSymbols())
	require.Equal(t, []string{"OVR", "VFV.TO", "XEQT", "ZAG.TO"}, ledger.AllSymbols())
}
