package processors

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/models"
)

// FilterAll is the include value that matches every holding.
const FilterAll = "all"

// Matches reports whether labels pass filters: the include filter is applied
// first, then any exclusion drops the holding.
func Matches(labels models.Labels, filters models.Filters) bool {
	if !includes(filters.Account, labels.AccountType) || !includes(filters.Category, labels.Category) {
		return false
	}
	for _, excluded := range filters.ExcludeAccounts {
		if strings.EqualFold(strings.TrimSpace(excluded), labels.AccountType) {
			return false
		}
	}
	for _, excluded := range filters.ExcludeCategories {
		if strings.EqualFold(strings.TrimSpace(excluded), labels.Category) {
			return false
		}
	}
	return true
}

func includes(include, label string) bool {
	include = strings.TrimSpace(include)
	if include == "" || strings.EqualFold(include, FilterAll) {
		return true
	}
	return strings.EqualFold(include, label)
}

// Aggregate sums valued holdings that pass filters, using each holding's own labels.
func Aggregate(holdings []models.ValuedHolding, filters models.Filters) models.Totals {
	return AggregateWithLabels(holdings, nil, filters)
}

// AggregateWithLabels sums valued holdings that pass filters. When labels has
// an entry for a holding's group, that entry is used for filtering and grouping
// instead of the holding's own labels.
func AggregateWithLabels(holdings []models.ValuedHolding, labels map[string]models.Labels, filters models.Filters) models.Totals {
	totals := models.Totals{
		Value:        decimal.Zero,
		Contribution: decimal.Zero,
		PerAccount:   make(map[string]models.GroupTotal),
		PerCategory:  make(map[string]models.GroupTotal),
	}
	for _, h := range holdings {
		l, ok := labels[h.GroupID]
		if !ok {
			l = models.Labels{AccountType: h.AccountType, Category: h.Category}
		}
		if !Matches(l, filters) {
			continue
		}
		totals.Value = totals.Value.Add(h.Value)
		totals.Contribution = totals.Contribution.Add(h.Contribution)
		totals.Count++
		totals.PerAccount[l.AccountType] = addToGroup(totals.PerAccount[l.AccountType], h)
		totals.PerCategory[l.Category] = addToGroup(totals.PerCategory[l.Category], h)
	}
	totals.Gain = totals.Value.Sub(totals.Contribution)
	totals.GainPercent = Percent(totals.Gain, totals.Contribution)
	return totals
}

// FilterHoldings returns the holdings that pass filters, in input order.
func FilterHoldings(holdings []models.ValuedHolding, filters models.Filters) []models.ValuedHolding {
	out := make([]models.ValuedHolding, 0, len(holdings))
	for _, h := range holdings {
		if Matches(models.Labels{AccountType: h.AccountType, Category: h.Category}, filters) {
			out = append(out, h)
		}
	}
	return out
}

func addToGroup(g models.GroupTotal, h models.ValuedHolding) models.GroupTotal {
	g.Value = g.Value.Add(h.Value)
	g.Contribution = g.Contribution.Add(h.Contribution)
	g.Count++
	return g
}
