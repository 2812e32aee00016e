package models

import (
	"github.com/shopspring/decimal"
)

// StrategyKind tags how a holding was valued.
type StrategyKind int

const (
	StrategyCostBasis StrategyKind = iota
	StrategyTracked
	StrategyManual
	StrategyOverride
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyOverride:
		return "override"
	case StrategyManual:
		return "manual"
	case StrategyTracked:
		return "tracked"
	default:
		return "cost_basis"
	}
}

// ValuationStrategy is the resolved valuation rule of one holding.
// Amount is the override value for StrategyOverride and the unit price otherwise,
// both already converted to the base currency.
type ValuationStrategy struct {
	Kind   StrategyKind
	Amount decimal.Decimal
}

// ValuedHolding is a holding priced at an instant. It is never persisted.
type ValuedHolding struct {
	GroupID      string
	AccountType  string
	AccountLabel string
	Category     string
	Name         string
	Symbol       string
	Shares       decimal.Decimal
	UnitCost     decimal.Decimal // base currency
	Strategy     ValuationStrategy
	Value        decimal.Decimal
	Contribution decimal.Decimal
	Gain         decimal.Decimal
	GainPercent  decimal.Decimal
}

// GroupTotal sums holdings sharing an account type or a category.
type GroupTotal struct {
	Value        decimal.Decimal
	Contribution decimal.Decimal
	Count        int
}

// Totals is the output of the aggregator.
type Totals struct {
	Value        decimal.Decimal
	Contribution decimal.Decimal
	Gain         decimal.Decimal
	GainPercent  decimal.Decimal
	Count        int
	PerAccount   map[string]GroupTotal
	PerCategory  map[string]GroupTotal
}

// Filters narrows the holdings that are aggregated. An empty or "all" include
// value matches every holding. Matching is case-insensitive.
type Filters struct {
	Account           string
	Category          string
	ExcludeAccounts   []string
	ExcludeCategories []string
}

// Labels are the account type and category a holding is filtered and grouped by.
type Labels struct {
	AccountType string
	Category    string
}
