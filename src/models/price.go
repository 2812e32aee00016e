package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the layout of observation dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// PriceObservation is one daily price of an instrument. There is at most one
// observation per (Symbol, Date); a later capture for the same day supersedes it.
type PriceObservation struct {
	Symbol    string
	Date      string // YYYY-MM-DD
	Price     decimal.Decimal
	Currency  string
	Source    string // "capture", "fetch" or "manual"
	UpdatedAt time.Time
}

// DateKey returns the observation date of an instant, taken in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Quote is the result of a quote fetch.
type Quote struct {
	Symbol      string          `json:"symbol"`
	Price       decimal.Decimal `json:"-"`
	DisplayName string          `json:"name"`
	Currency    string          `json:"currency,omitempty"`
}

// PricePoint is a price observation as exposed by the price history endpoint.
type PricePoint struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

// PriceHistoryResponse is the body of GET /api/price-history/{symbol}.
type PriceHistoryResponse struct {
	Symbol  string       `json:"symbol"`
	History []PricePoint `json:"history"`
}

// FetchPriceResponse is the body of POST /api/fetch-price.
type FetchPriceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Name   string  `json:"name"`
}
