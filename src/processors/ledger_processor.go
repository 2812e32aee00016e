package processors

import (
	"sort"
	"strings"
	"time"

	"github.com/username/portfoliotracker/src/models"
)

// Ledger resolves views over a materialized, append-only set of holding edits.
// It never mutates the edits it was built from.
type Ledger struct {
	edits []models.HoldingEdit
}

// NewLedger copies edits into a Ledger.
func NewLedger(edits []models.HoldingEdit) *Ledger {
	cp := make([]models.HoldingEdit, len(edits))
	copy(cp, edits)
	return &Ledger{edits: cp}
}

// Len is the number of edits in the ledger.
func (l *Ledger) Len() int { return len(l.edits) }

// CurrentHoldings returns the latest edit of every group whose latest edit is not a deletion.
func (l *Ledger) CurrentHoldings() []models.HoldingEdit {
	return presentHoldings(latestPerGroup(l.edits, func(models.HoldingEdit) bool { return true }))
}

// HoldingsAsOf returns, for every group, the latest edit with sequence time <= asOf,
// excluding groups resolved to a deletion. Groups with no edit yet are absent.
func (l *Ledger) HoldingsAsOf(asOf time.Time) []models.HoldingEdit {
	return presentHoldings(latestPerGroup(l.edits, func(e models.HoldingEdit) bool {
		return !e.SequenceTime.After(asOf)
	}))
}

// CurrentLabels returns the account type and category of the latest edit of
// every group, deleted groups included. Historical valuations are filtered and
// grouped by these labels so a renamed holding keeps one history.
func (l *Ledger) CurrentLabels() map[string]models.Labels {
	latest := latestPerGroup(l.edits, func(models.HoldingEdit) bool { return true })
	labels := make(map[string]models.Labels, len(latest))
	for groupID, e := range latest {
		labels[groupID] = models.Labels{AccountType: e.AccountType, Category: e.Category}
	}
	return labels
}

// Earliest returns the sequence time of the oldest edit.
func (l *Ledger) Earliest() (time.Time, bool) {
	if len(l.edits) == 0 {
		return time.Time{}, false
	}
	earliest := l.edits[0].SequenceTime
	for _, e := range l.edits[1:] {
		if e.SequenceTime.Before(earliest) {
			earliest = e.SequenceTime
		}
	}
	return earliest, true
}

// Group returns the current edit of one group. ok is false when the group is unknown or deleted.
func (l *Ledger) Group(groupID string) (models.HoldingEdit, bool) {
	latest := latestPerGroup(l.edits, func(e models.HoldingEdit) bool { return e.GroupID == groupID })
	e, ok := latest[groupID]
	if !ok || e.IsDeleted {
		return models.HoldingEdit{}, false
	}
	return e, true
}

// TrackedSymbols returns the sorted, distinct price symbols of the current auto-tracked holdings.
func (l *Ledger) TrackedSymbols() []string {
	seen := make(map[string]struct{})
	for _, h := range l.CurrentHoldings() {
		if !h.AutoTrackPrice || h.ValueOverride.Valid {
			continue
		}
		if s := h.TrackedSymbol(); s != "" {
			seen[s] = struct{}{}
		}
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// AllSymbols returns every distinct price symbol referenced by any edit.
func (l *Ledger) AllSymbols() []string {
	seen := make(map[string]struct{})
	for _, e := range l.edits {
		if s := e.TrackedSymbol(); s != "" {
			seen[s] = struct{}{}
		}
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

func latestPerGroup(edits []models.HoldingEdit, keep func(models.HoldingEdit) bool) map[string]models.HoldingEdit {
	latest := make(map[string]models.HoldingEdit)
	for _, e := range edits {
		if !keep(e) {
			continue
		}
		if cur, ok := latest[e.GroupID]; !ok || e.SupersedesEdit(cur) {
			latest[e.GroupID] = e
		}
	}
	return latest
}

func presentHoldings(latest map[string]models.HoldingEdit) []models.HoldingEdit {
	holdings := make([]models.HoldingEdit, 0, len(latest))
	for _, e := range latest {
		if !e.IsDeleted {
			holdings = append(holdings, e)
		}
	}
	sort.Slice(holdings, func(i, j int) bool {
		a, b := holdings[i], holdings[j]
		if c := strings.Compare(a.AccountType, b.AccountType); c != 0 {
			return c < 0
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.GroupID < b.GroupID
	})
	return holdings
}
