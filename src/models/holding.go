package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HoldingEdit is one immutable row of the holding ledger. Every user edit of a
// holding appends a new HoldingEdit sharing the same GroupID; deletion appends
// a row with IsDeleted set.
type HoldingEdit struct {
	ID           int64 // insertion order, breaks ties on equal SequenceTime
	GroupID      string
	UserID       string
	SequenceTime time.Time

	AccountType  string
	AccountLabel string
	Category     string
	Name         string

	InstrumentSymbol string // empty when absent
	LookupSymbol     string // empty when absent

	Shares   decimal.Decimal
	UnitCost decimal.Decimal

	ManualPrice          decimal.NullDecimal
	ContributionOverride decimal.NullDecimal
	ValueOverride        decimal.NullDecimal

	AutoTrackPrice bool

	// ConvertCurrency multiplies unit cost, prices and the value override by
	// FXRate. The rate is captured once when the edit is written.
	ConvertCurrency bool
	Currency        string
	FXRate          decimal.NullDecimal

	IsDeleted bool
}

// TrackedSymbol is the symbol used for price lookups: lookup_symbol ?? instrument_symbol.
func (h HoldingEdit) TrackedSymbol() string {
	if s := strings.TrimSpace(h.LookupSymbol); s != "" {
		return NormalizeSymbol(s)
	}
	return NormalizeSymbol(h.InstrumentSymbol)
}

// SupersedesEdit reports whether h wins over other when both belong to the same group.
func (h HoldingEdit) SupersedesEdit(other HoldingEdit) bool {
	if h.SequenceTime.Equal(other.SequenceTime) {
		return h.ID > other.ID
	}
	return h.SequenceTime.After(other.SequenceTime)
}

// NormalizeSymbol upper-cases and trims an instrument symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// HoldingInput is the request body for creating or editing a holding.
type HoldingInput struct {
	AccountType          string              `json:"account_type"`
	AccountLabel         string              `json:"account_label"`
	Category             string              `json:"category"`
	Name                 string              `json:"name"`
	InstrumentSymbol     string              `json:"instrument_symbol"`
	LookupSymbol         string              `json:"lookup_symbol"`
	Shares               decimal.Decimal     `json:"shares"`
	UnitCost             decimal.Decimal     `json:"unit_cost"`
	ManualPrice          decimal.NullDecimal `json:"manual_price"`
	ContributionOverride decimal.NullDecimal `json:"contribution_override"`
	ValueOverride        decimal.NullDecimal `json:"value_override"`
	AutoTrackPrice       bool                `json:"auto_track_price"`
	ConvertCurrency      bool                `json:"convert_currency"`
	Currency             string              `json:"currency"`
	FXRate               decimal.NullDecimal `json:"fx_rate"`
}

// HoldingVersion is one ledger row as exposed by the audit trail endpoint.
type HoldingVersion struct {
	ID                   int64     `json:"id"`
	GroupID              string    `json:"group_id"`
	SequenceTime         time.Time `json:"sequence_time"`
	AccountType          string    `json:"account_type"`
	AccountLabel         string    `json:"account_label"`
	Category             string    `json:"category"`
	Name                 string    `json:"name"`
	InstrumentSymbol     string    `json:"instrument_symbol,omitempty"`
	LookupSymbol         string    `json:"lookup_symbol,omitempty"`
	Shares               float64   `json:"shares"`
	UnitCost             float64   `json:"unit_cost"`
	ManualPrice          *float64  `json:"manual_price"`
	ContributionOverride *float64  `json:"contribution_override"`
	ValueOverride        *float64  `json:"value_override"`
	AutoTrackPrice       bool      `json:"auto_track_price"`
	ConvertCurrency      bool      `json:"convert_currency"`
	Currency             string    `json:"currency,omitempty"`
	FXRate               *float64  `json:"fx_rate"`
	IsDeleted            bool      `json:"is_deleted"`
}

// ToVersion converts a ledger row to its API representation.
func (h HoldingEdit) ToVersion() HoldingVersion {
	return HoldingVersion{
		ID:                   h.ID,
		GroupID:              h.GroupID,
		SequenceTime:         h.SequenceTime.UTC(),
		AccountType:          h.AccountType,
		AccountLabel:         h.AccountLabel,
		Category:             h.Category,
		Name:                 h.Name,
		InstrumentSymbol:     h.InstrumentSymbol,
		LookupSymbol:         h.LookupSymbol,
		Shares:               h.Shares.InexactFloat64(),
		UnitCost:             h.UnitCost.InexactFloat64(),
		ManualPrice:          nullableFloat(h.ManualPrice),
		ContributionOverride: nullableFloat(h.ContributionOverride),
		ValueOverride:        nullableFloat(h.ValueOverride),
		AutoTrackPrice:       h.AutoTrackPrice,
		ConvertCurrency:      h.ConvertCurrency,
		Currency:             h.Currency,
		FXRate:               nullableFloat(h.FXRate),
		IsDeleted:            h.IsDeleted,
	}
}

func nullableFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
