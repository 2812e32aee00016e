package model

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliotracker/src/database"
	"github.com/username/portfoliotracker/src/models"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var day1 = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

func TestHoldingEditRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)

	edit := models.HoldingEdit{
		GroupID:          "g1",
		UserID:           "alice",
		SequenceTime:     day1.Add(123 * time.Nanosecond),
		AccountType:      "TFSA",
		AccountLabel:     "Questrade",
		Category:         "Equity",
		Name:             "S&P 500",
		InstrumentSymbol: "vfv.to",
		Shares:           decimal.RequireFromString("10.5"),
		UnitCost:         decimal.RequireFromString("100.25"),
		ValueOverride:    decimal.NewNullDecimal(decimal.RequireFromString("1234.56")),
		ConvertCurrency:  true,
		Currency:         "USD",
		FXRate:           decimal.NewNullDecimal(decimal.RequireFromString("1.3521")),
	}
	id, err := InsertHoldingEdit(ctx, db, edit)
	require.NoError(t, err)
	require.Positive(t, id)

	edits, err := GetHoldingEditsByUser(ctx, db, "alice")
	require.NoError(t, err)
	require.Len(t, edits, 1)
	got := edits[0]
	require.Equal(t, id, got.ID)
	require.True(t, edit.SequenceTime.Equal(got.SequenceTime))
	require.Equal(t, "vfv.to", got.InstrumentSymbol)
	require.Empty(t, got.LookupSymbol)
	require.True(t, got.Shares.Equal(edit.Shares))
	require.True(t, got.UnitCost.Equal(edit.UnitCost))
	require.False(t, got.ManualPrice.Valid)
	require.False(t, got.ContributionOverride.Valid)
	require.True(t, got.ValueOverride.Valid)
	require.True(t, got.ValueOverride.Decimal.Equal(edit.ValueOverride.Decimal))
	require.True(t, got.FXRate.Decimal.Equal(edit.FXRate.Decimal))
	require.True(t, got.ConvertCurrency)
	require.False(t, got.IsDeleted)

	other, err := GetHoldingEditsByUser(ctx, db, "bob")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestGroupEditsNewestFirstWithTieBreak(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)

	base := models.HoldingEdit{GroupID: "g1", UserID: "alice", AccountType: "RRSP", Category: "Bond"}
	first := base
	first.SequenceTime = day1
	second := base
	second.SequenceTime = day1.Add(time.Hour)
	tied := base
	tied.SequenceTime = day1.Add(time.Hour)
	tied.IsDeleted = true

	for _, e := range []models.HoldingEdit{first, second, tied} {
		_, err := InsertHoldingEdit(ctx, db, e)
		require.NoError(t, err)
	}

	edits, err := GetGroupEdits(ctx, db, "alice", "g1")
	require.NoError(t, err)
	require.Len(t, edits, 3)
	require.True(t, edits[0].IsDeleted)
	require.True(t, edits[0].SupersedesEdit(edits[1]))
	require.True(t, edits[2].SequenceTime.Equal(day1))
}

func TestAutoTrackedEditsIncludeWholeGroup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)

	tracked := models.HoldingEdit{GroupID: "g1", UserID: "alice", SequenceTime: day1, AutoTrackPrice: true, InstrumentSymbol: "XEQT.TO"}
	untrackLater := tracked
	untrackLater.SequenceTime = day1.Add(time.Hour)
	untrackLater.AutoTrackPrice = false
	manual := models.HoldingEdit{GroupID: "g2", UserID: "bob", SequenceTime: day1, InstrumentSymbol: "CASH"}

	for _, e := range []models.HoldingEdit{tracked, untrackLater, manual} {
		_, err := InsertHoldingEdit(ctx, db, e)
		require.NoError(t, err)
	}

	edits, err := GetAutoTrackedEdits(ctx, db)
	require.NoError(t, err)
	require.Len(t, edits, 2)
	for _, e := range edits {
		require.Equal(t, "g1", e.GroupID)
	}

	stats, err := GetLedgerStats(ctx, db)
	require.NoError(t, err)
	require.Equal(t, LedgerStats{Edits: 3, Groups: 2, Users: 2}, stats)
}

func TestPriceUpsertSupersedes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)

	require.NoError(t, InsertOrUpdatePrice(ctx, db, models.PriceObservation{Symbol: "vfv.to", Date: "2024-03-01", Price: decimal.NewFromInt(100)}))
	require.NoError(t, InsertOrUpdatePrice(ctx, db, models.PriceObservation{Symbol: "VFV.TO", Date: "2024-03-01", Price: decimal.NewFromInt(101), Source: "manual"}))

	history, err := GetPriceHistory(ctx, db, "VFV.TO", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.True(t, history[0].Price.Equal(decimal.NewFromInt(101)))
	require.Equal(t, "manual", history[0].Source)
}

func TestGetPriceAsOfCarriesForward(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)

	require.NoError(t, InsertOrUpdatePrice(ctx, db, models.PriceObservation{Symbol: "ABC", Date: "2024-03-05", Price: decimal.NewFromInt(120)}))
	require.NoError(t, InsertOrUpdatePrice(ctx, db, models.PriceObservation{Symbol: "ABC", Date: "2024-03-10", Price: decimal.NewFromInt(130)}))

	_, found, err := GetPriceAsOf(ctx, db, "ABC", "2024-03-03")
	require.NoError(t, err)
	require.False(t, found)

	obs, found, err := GetPriceAsOf(ctx, db, "abc", "2024-03-08")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "2024-03-05", obs.Date)
	require.True(t, obs.Price.Equal(decimal.NewFromInt(120)))

	obs, found, err = GetPriceAsOf(ctx, db, "ABC", "2024-03-10")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, obs.Price.Equal(decimal.NewFromInt(130)))

	_, found, err = GetPriceAsOf(ctx, db, "NONE", "2024-03-10")
	require.NoError(t, err)
	require.False(t, found)
}

func TestGetPricesForSymbolsBoundsDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)

	for _, obs := range []models.PriceObservation{
		{Symbol: "A", Date: "2024-03-01", Price: decimal.NewFromInt(1)},
		{Symbol: "A", Date: "2024-03-04", Price: decimal.NewFromInt(2)},
		{Symbol: "B", Date: "2024-03-02", Price: decimal.NewFromInt(3)},
		{Symbol: "C", Date: "2024-03-02", Price: decimal.NewFromInt(4)},
	} {
		require.NoError(t, InsertOrUpdatePrice(ctx, db, obs))
	}

	prices, err := GetPricesForSymbols(ctx, db, []string{"a", "B"}, "2024-03-03")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	require.Equal(t, "A", prices[0].Symbol)
	require.Equal(t, "2024-03-01", prices[0].Date)
	require.Equal(t, "B", prices[1].Symbol)

	none, err := GetPricesForSymbols(ctx, db, nil, "2024-03-03")
	require.NoError(t, err)
	require.Empty(t, none)

	stats, err := GetPriceStats(ctx, db)
	require.NoError(t, err)
	require.Equal(t, PriceStats{Observations: 4, Symbols: 3, FirstDate: "2024-03-01", LastDate: "2024-03-04"}, stats)
}
