package processors

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/models"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the materialized input of a valuation: a ledger and the price
// observations of every symbol it references.
type Snapshot struct {
	Ledger *Ledger
	Prices *PriceSeries
}

// Live values the current holdings with prices as of now's date.
func (s Snapshot) Live(now time.Time, filters models.Filters) ([]models.ValuedHolding, models.Totals) {
	valued := ValueHoldings(s.Ledger.CurrentHoldings(), s.Prices.Lookup(models.DateKey(now)))
	return FilterHoldings(valued, filters), Aggregate(valued, filters)
}

// TotalsAsOf values the holdings as of at, filtered and grouped by their current labels.
func (s Snapshot) TotalsAsOf(at time.Time, labels map[string]models.Labels, filters models.Filters) models.Totals {
	valued := ValueHoldings(s.Ledger.HoldingsAsOf(at), s.Prices.Lookup(models.DateKey(at)))
	return AggregateWithLabels(valued, labels, filters)
}

// RebaseRatioFor returns live / anchor, or 1 when the anchor is zero.
func RebaseRatioFor(anchor, live decimal.Decimal) decimal.Decimal {
	if anchor.IsZero() {
		return decimal.NewFromInt(1)
	}
	return live.Div(anchor)
}

// Rebase builds the final series: one point per historical sample followed by
// the live total at now. With RebaseRatio every historical value is scaled by
// live / raw[last historical point]. The last point is always exactly live.
func Rebase(historical []time.Time, raw []decimal.Decimal, now time.Time, live decimal.Decimal, mode models.RebaseMode) []models.MovementPoint {
	ratio := decimal.NewFromInt(1)
	if mode == models.RebaseRatio && len(raw) > 0 {
		ratio = RebaseRatioFor(raw[len(raw)-1], live)
	}
	points := make([]models.MovementPoint, 0, len(raw)+1)
	for i, v := range raw {
		points = append(points, models.MovementPoint{Timestamp: historical[i], Value: v.Mul(ratio)})
	}
	return append(points, models.MovementPoint{Timestamp: now, Value: live})
}

// ReconstructMovement values the portfolio at every historical sample of window,
// forces the final point to the live total and rebases per mode.
func ReconstructMovement(ctx context.Context, snap Snapshot, window models.Window, filters models.Filters, mode models.RebaseMode) (models.MovementResult, error) {
	historical, now, err := splitWindow(window)
	if err != nil {
		return models.MovementResult{}, err
	}
	sampled, err := sampleTotals(ctx, snap, historical, filters)
	if err != nil {
		return models.MovementResult{}, err
	}
	_, live := snap.Live(now, filters)

	raw := make([]decimal.Decimal, len(sampled))
	for i, t := range sampled {
		raw[i] = t.Value
	}
	points := Rebase(historical, raw, now, live.Value, mode)

	previous := points[0].Value
	change := live.Value.Sub(previous)
	return models.MovementResult{
		Range:         window.Range,
		Mode:          mode,
		CurrentValue:  live.Value,
		PreviousValue: previous,
		Change:        change,
		ChangePercent: Percent(change, previous),
		Since:         points[0].Timestamp,
		Points:        points,
	}, nil
}

// ReconstructHistory builds the overall series plus one independently rebased
// series per account type.
func ReconstructHistory(ctx context.Context, snap Snapshot, window models.Window, filters models.Filters, mode models.RebaseMode) (models.HistoryResult, error) {
	historical, now, err := splitWindow(window)
	if err != nil {
		return models.HistoryResult{}, err
	}
	sampled, err := sampleTotals(ctx, snap, historical, filters)
	if err != nil {
		return models.HistoryResult{}, err
	}
	_, live := snap.Live(now, filters)

	accounts := make(map[string]struct{})
	for account := range live.PerAccount {
		accounts[account] = struct{}{}
	}
	raw := make([]decimal.Decimal, len(sampled))
	for i, t := range sampled {
		raw[i] = t.Value
		for account := range t.PerAccount {
			accounts[account] = struct{}{}
		}
	}

	names := make([]string, 0, len(accounts))
	for account := range accounts {
		names = append(names, account)
	}
	sort.Strings(names)

	perAccount := make(map[string][]models.MovementPoint, len(names))
	for _, account := range names {
		accountRaw := make([]decimal.Decimal, len(sampled))
		for i, t := range sampled {
			accountRaw[i] = t.PerAccount[account].Value
		}
		perAccount[account] = Rebase(historical, accountRaw, now, live.PerAccount[account].Value, mode)
	}

	return models.HistoryResult{
		Overall:    Rebase(historical, raw, now, live.Value, mode),
		PerAccount: perAccount,
	}, nil
}

func splitWindow(window models.Window) ([]time.Time, time.Time, error) {
	if len(window.Samples) == 0 {
		return nil, time.Time{}, fmt.Errorf("%w: window %q has no samples", ErrInvalidRange, window.Range)
	}
	last := len(window.Samples) - 1
	return window.Samples[:last], window.Samples[last], nil
}

// sampleTotals values every sample concurrently and returns totals in sample order.
func sampleTotals(ctx context.Context, snap Snapshot, historical []time.Time, filters models.Filters) ([]models.Totals, error) {
	labels := snap.Ledger.CurrentLabels()
	totals := make([]models.Totals, len(historical))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxSamplePoints)
	for i, at := range historical {
		i, at := i, at
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			totals[i] = snap.TotalsAsOf(at, labels, filters)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reconstruct samples: %w", err)
	}
	return totals, nil
}
