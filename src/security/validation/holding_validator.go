package validation

import (
	"errors"
	"strings"

	"github.com/username/portfoliotracker/src/models"
)

// NormalizeHoldingInput validates a holding edit request and cleans it in place.
// All problems are reported together.
func NormalizeHoldingInput(in *models.HoldingInput) error {
	in.AccountType = CleanLabel(in.AccountType)
	in.AccountLabel = CleanLabel(in.AccountLabel)
	in.Category = CleanLabel(in.Category)
	in.Name = CleanLabel(in.Name)
	in.InstrumentSymbol = strings.TrimSpace(in.InstrumentSymbol)
	in.LookupSymbol = strings.TrimSpace(in.LookupSymbol)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))

	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(ValidateStringNotEmpty(in.AccountType, "account_type"))
	add(ValidateStringNotEmpty(in.Category, "category"))
	add(ValidateStringNotEmpty(in.Name, "name"))
	add(ValidateStringMaxLength(in.AccountType, DefaultMaxStringLength, "account_type"))
	add(ValidateStringMaxLength(in.AccountLabel, DefaultMaxStringLength, "account_label"))
	add(ValidateStringMaxLength(in.Category, DefaultMaxStringLength, "category"))
	add(ValidateStringMaxLength(in.Name, DefaultMaxStringLength, "name"))
	if in.InstrumentSymbol != "" {
		add(ValidateSymbol(in.InstrumentSymbol, "instrument_symbol"))
	}
	if in.LookupSymbol != "" {
		add(ValidateSymbol(in.LookupSymbol, "lookup_symbol"))
	}
	if in.AutoTrackPrice && in.InstrumentSymbol == "" && in.LookupSymbol == "" && !in.ValueOverride.Valid {
		add(ValidateStringNotEmpty("", "instrument_symbol (required when auto_track_price is set)"))
	}

	add(ValidateNonNegative(in.Shares, "shares"))
	add(ValidateNonNegative(in.UnitCost, "unit_cost"))
	add(ValidateNullNonNegative(in.ManualPrice, "manual_price"))
	add(ValidateNullNonNegative(in.ContributionOverride, "contribution_override"))
	add(ValidateNullNonNegative(in.ValueOverride, "value_override"))

	if in.ConvertCurrency {
		add(ValidateCurrencyCode(in.Currency, "currency"))
		if in.FXRate.Valid {
			add(ValidatePositive(in.FXRate.Decimal, "fx_rate"))
		}
	}

	// A value override is exclusive: it disables tracking and manual pricing.
	if in.ValueOverride.Valid {
		in.AutoTrackPrice = false
		in.ManualPrice.Valid = false
	}

	return errors.Join(errs...)
}
