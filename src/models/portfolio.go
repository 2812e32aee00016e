package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// HoldingWithValue is a current holding with its valuation, as returned by the API.
type HoldingWithValue struct {
	GroupID             string  `json:"group_id"`
	AccountType         string  `json:"account_type"`
	AccountLabel        string  `json:"account_label"`
	Category            string  `json:"category"`
	Name                string  `json:"name"`
	Symbol              string  `json:"symbol,omitempty"`
	Shares              float64 `json:"shares"`
	UnitCost            float64 `json:"unit_cost"`
	CurrentPrice        float64 `json:"current_price"`
	Valuation           string  `json:"valuation"`
	Value               float64 `json:"value"`
	Contribution        float64 `json:"contribution"`
	Gain                float64 `json:"gain"`
	GainPercent         float64 `json:"gain_percent"`
	PortfolioPercentage float64 `json:"portfolio_percentage"`
}

// GroupTotalResponse is a per-account-type or per-category total.
type GroupTotalResponse struct {
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
	Count        int     `json:"count"`
}

// TotalsResponse is the API form of Totals.
type TotalsResponse struct {
	TotalValue        float64                       `json:"total_value"`
	TotalContribution float64                       `json:"total_contribution"`
	TotalGain         float64                       `json:"total_gain"`
	TotalGainPercent  float64                       `json:"total_gain_percent"`
	HoldingsCount     int                           `json:"holdings_count"`
	PerAccount        map[string]GroupTotalResponse `json:"per_account"`
	PerCategory       map[string]GroupTotalResponse `json:"per_category"`
}

// PortfolioResponse is the body of GET /api/portfolio.
type PortfolioResponse struct {
	Holdings []HoldingWithValue `json:"holdings"`
	Totals   TotalsResponse     `json:"totals"`
}

// AccountTypeSummary is one row of GET /api/portfolio/by-account-type.
type AccountTypeSummary struct {
	AccountType  string  `json:"account_type"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
	Count        int     `json:"count"`
}

// PointResponse is one point of a series.
type PointResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MovementResponse is the body of GET /api/portfolio/movement.
type MovementResponse struct {
	Range         string          `json:"range"`
	Mode          string          `json:"mode"`
	CurrentValue  float64         `json:"current_value"`
	PreviousValue float64         `json:"previous_value"`
	Change        float64         `json:"change"`
	ChangePercent float64         `json:"change_percent"`
	Since         time.Time       `json:"since"`
	Points        []PointResponse `json:"points"`
}

// HistoryResponse is the body of GET /api/portfolio/history.
type HistoryResponse struct {
	Overall    []PointResponse            `json:"overall"`
	PerAccount map[string][]PointResponse `json:"per_account"`
}

// Amount rounds a monetary or percentage value to cents for the API.
func Amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// NewPortfolioResponse builds the API form of the current portfolio.
func NewPortfolioResponse(holdings []ValuedHolding, totals Totals) PortfolioResponse {
	items := make([]HoldingWithValue, 0, len(holdings))
	hundred := decimal.NewFromInt(100)
	for _, h := range holdings {
		pct := decimal.Zero
		if totals.Value.IsPositive() {
			pct = h.Value.Div(totals.Value).Mul(hundred)
		}
		price := h.Strategy.Amount
		if h.Strategy.Kind == StrategyOverride {
			price = decimal.Zero
			if h.Shares.IsPositive() {
				price = h.Value.Div(h.Shares)
			}
		}
		items = append(items, HoldingWithValue{
			GroupID:             h.GroupID,
			AccountType:         h.AccountType,
			AccountLabel:        h.AccountLabel,
			Category:            h.Category,
			Name:                h.Name,
			Symbol:              h.Symbol,
			Shares:              h.Shares.InexactFloat64(),
			UnitCost:            Amount(h.UnitCost),
			CurrentPrice:        Amount(price),
			Valuation:           h.Strategy.Kind.String(),
			Value:               Amount(h.Value),
			Contribution:        Amount(h.Contribution),
			Gain:                Amount(h.Gain),
			GainPercent:         Amount(h.GainPercent),
			PortfolioPercentage: Amount(pct),
		})
	}
	return PortfolioResponse{Holdings: items, Totals: NewTotalsResponse(totals)}
}

// NewTotalsResponse builds the API form of aggregated totals.
func NewTotalsResponse(t Totals) TotalsResponse {
	return TotalsResponse{
		TotalValue:        Amount(t.Value),
		TotalContribution: Amount(t.Contribution),
		TotalGain:         Amount(t.Gain),
		TotalGainPercent:  Amount(t.GainPercent),
		HoldingsCount:     t.Count,
		PerAccount:        groupTotalsResponse(t.PerAccount),
		PerCategory:       groupTotalsResponse(t.PerCategory),
	}
}

func groupTotalsResponse(in map[string]GroupTotal) map[string]GroupTotalResponse {
	out := make(map[string]GroupTotalResponse, len(in))
	for k, v := range in {
		out[k] = GroupTotalResponse{Value: Amount(v.Value), Contribution: Amount(v.Contribution), Count: v.Count}
	}
	return out
}

// NewAccountTypeSummaries lists per-account-type totals sorted by account type.
func NewAccountTypeSummaries(t Totals) []AccountTypeSummary {
	summaries := make([]AccountTypeSummary, 0, len(t.PerAccount))
	for accountType, total := range t.PerAccount {
		summaries = append(summaries, AccountTypeSummary{
			AccountType:  accountType,
			Value:        Amount(total.Value),
			Contribution: Amount(total.Contribution),
			Count:        total.Count,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].AccountType < summaries[j].AccountType })
	return summaries
}

// NewPointsResponse converts a series to its API form.
func NewPointsResponse(points []MovementPoint) []PointResponse {
	out := make([]PointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, PointResponse{Timestamp: p.Timestamp.UTC(), Value: Amount(p.Value)})
	}
	return out
}

// NewMovementResponse builds the API form of a movement result.
func NewMovementResponse(m MovementResult) MovementResponse {
	return MovementResponse{
		Range:         m.Range,
		Mode:          m.Mode.String(),
		CurrentValue:  Amount(m.CurrentValue),
		PreviousValue: Amount(m.PreviousValue),
		Change:        Amount(m.Change),
		ChangePercent: Amount(m.ChangePercent),
		Since:         m.Since.UTC(),
		Points:        NewPointsResponse(m.Points),
	}
}

// NewHistoryResponse builds the API form of a history result.
func NewHistoryResponse(h HistoryResult) HistoryResponse {
	perAccount := make(map[string][]PointResponse, len(h.PerAccount))
	for account, points := range h.PerAccount {
		perAccount[account] = NewPointsResponse(points)
	}
	return HistoryResponse{Overall: NewPointsResponse(h.Overall), PerAccount: perAccount}
}
