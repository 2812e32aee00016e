package processors

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/models"
)

// PriceSeries answers price-as-of lookups over materialized observations.
type PriceSeries struct {
	bySymbol map[string][]models.PriceObservation // sorted by date, one per date
}

// NewPriceSeries indexes observations by symbol. When the input holds two
// observations for the same symbol and date, the later one in the input wins.
func NewPriceSeries(observations []models.PriceObservation) *PriceSeries {
	bySymbol := make(map[string][]models.PriceObservation)
	for _, obs := range observations {
		obs.Symbol = models.NormalizeSymbol(obs.Symbol)
		bySymbol[obs.Symbol] = append(bySymbol[obs.Symbol], obs)
	}
	for symbol, series := range bySymbol {
		slices.SortStableFunc(series, func(a, b models.PriceObservation) int {
			return strings.Compare(a.Date, b.Date)
		})
		deduped := series[:0]
		for _, obs := range series {
			if n := len(deduped); n > 0 && deduped[n-1].Date == obs.Date {
				deduped[n-1] = obs
				continue
			}
			deduped = append(deduped, obs)
		}
		bySymbol[symbol] = deduped
	}
	return &PriceSeries{bySymbol: bySymbol}
}

// PriceAsOf returns the price of the observation with the greatest date <= date.
// It never interpolates or looks forward; found is false when no such observation exists.
func (s *PriceSeries) PriceAsOf(symbol, date string) (price decimal.Decimal, found bool) {
	series := s.bySymbol[models.NormalizeSymbol(symbol)]
	if len(series) == 0 {
		return decimal.Zero, false
	}
	i, exact := slices.BinarySearchFunc(series, date, func(obs models.PriceObservation, d string) int {
		return strings.Compare(obs.Date, d)
	})
	if exact {
		return series[i].Price, true
	}
	if i == 0 {
		return decimal.Zero, false
	}
	return series[i-1].Price, true
}

// Lookup returns a PriceLookup bound to date.
func (s *PriceSeries) Lookup(date string) PriceLookup {
	return func(symbol string) (decimal.Decimal, bool) {
		return s.PriceAsOf(symbol, date)
	}
}

// Symbols returns the symbols with at least one observation.
func (s *PriceSeries) Symbols() []string {
	symbols := make([]string, 0, len(s.bySymbol))
	for symbol := range s.bySymbol {
		symbols = append(symbols, symbol)
	}
	slices.Sort(symbols)
	return symbols
}
