package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

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

// day returns noon UTC on the given day of March 2024.
func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

type fakeFetcher struct {
	mu     sync.Mutex
	prices map[string]string
	calls  []string
}

func (f *fakeFetcher) FetchPrice(_ context.Context, symbol string) (models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbol)
	p, ok := f.prices[symbol]
	if !ok {
		return models.Quote{}, fmt.Errorf("%w: %s: no price data found", ErrQuoteUnavailable, symbol)
	}
	return models.Quote{Symbol: symbol, Price: decimal.RequireFromString(p), DisplayName: symbol + " Inc", Currency: "CAD"}, nil
}

type fakeRates struct {
	rate string
	err  error
	hits int
}

func (f *fakeRates) GetExchangeRate(_ context.Context, _ string, _ time.Time) (decimal.Decimal, error) {
	f.hits++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return decimal.RequireFromString(f.rate), nil
}

func (f *fakeRates) BaseCurrency() string { return "CAD" }

type recordingInvalidator struct {
	users []string
	all   int
}

func (r *recordingInvalidator) InvalidateUserCache(userID string) { r.users = append(r.users, userID) }
func (r *recordingInvalidator) InvalidateAll()                    { r.all++ }

func trackedInput(symbol, shares, cost string) models.HoldingInput {
	return models.HoldingInput{
		AccountType:      "TFSA",
		Category:         "Equity",
		Name:             symbol + " fund",
		InstrumentSymbol: symbol,
		Shares:           decimal.RequireFromString(shares),
		UnitCost:         decimal.RequireFromString(cost),
		AutoTrackPrice:   true,
	}
}

// newLedgerAt returns a ledger service whose clock is set by the returned func.
func newLedgerAt(db *sql.DB, rates RateProvider, inv CacheInvalidator) (*ledgerServiceImpl, func(time.Time)) {
	svc := NewLedgerService(db, rates, inv).(*ledgerServiceImpl)
	current := day(1)
	svc.now = func() time.Time { return current }
	return svc, func(t time.Time) { current = t }
}
