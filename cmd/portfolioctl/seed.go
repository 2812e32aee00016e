package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/config"
	"github.com/username/portfoliotracker/src/models"
	"github.com/username/portfoliotracker/src/processors"
	"github.com/username/portfoliotracker/src/security/validation"
	"github.com/username/portfoliotracker/src/services"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout accepted by the seed command.
type seedFile struct {
	User     string        `yaml:"user"`
	Holdings []seedHolding `yaml:"holdings"`
	Prices   []seedPrice   `yaml:"prices"`
}

type seedHolding struct {
	AsOf                 string     `yaml:"as_of"`
	AccountType          string     `yaml:"account_type"`
	AccountLabel         string     `yaml:"account_label"`
	Category             string     `yaml:"category"`
	Name                 string     `yaml:"name"`
	InstrumentSymbol     string     `yaml:"instrument_symbol"`
	LookupSymbol         string     `yaml:"lookup_symbol"`
	Shares               string     `yaml:"shares"`
	UnitCost             string     `yaml:"unit_cost"`
	ManualPrice          string     `yaml:"manual_price"`
	ContributionOverride string     `yaml:"contribution_override"`
	ValueOverride        string     `yaml:"value_override"`
	AutoTrackPrice       bool       `yaml:"auto_track_price"`
	ConvertCurrency      bool       `yaml:"convert_currency"`
	Currency             string     `yaml:"currency"`
	FXRate               string     `yaml:"fx_rate"`
	Edits                []seedEdit `yaml:"edits"`
	DeletedOn            string     `yaml:"deleted_on"`
}

// seedEdit changes the position of a holding on a later date.
type seedEdit struct {
	AsOf     string `yaml:"as_of"`
	Shares   string `yaml:"shares"`
	UnitCost string `yaml:"unit_cost"`
}

type seedPrice struct {
	Symbol string `yaml:"symbol"`
	Date   string `yaml:"date"`
	Price  string `yaml:"price"`
}

// parseSeed strictly decodes a seed file. Unknown fields are rejected.
// A file without a user seeds defaultUser.
func parseSeed(r io.Reader, defaultUser string) (seedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return seedFile{}, err
	}
	var seed seedFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return seedFile{}, fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	if seed.User == "" {
		seed.User = defaultUser
	}
	if err := validation.ValidateUserID(seed.User); err != nil {
		return seedFile{}, err
	}
	return seed, nil
}

// input converts the holding to a ledger input.
func (h seedHolding) input() (models.HoldingInput, error) {
	var errs []error
	dec := func(s, field string) decimal.Decimal {
		if strings.TrimSpace(s) == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s %q is not a number", validation.ErrValidationFailed, field, s))
		}
		return d
	}
	nullDec := func(s, field string) decimal.NullDecimal {
		if strings.TrimSpace(s) == "" {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(dec(s, field))
	}

	in := models.HoldingInput{
		AccountType:          h.AccountType,
		AccountLabel:         h.AccountLabel,
		Category:             h.Category,
		Name:                 h.Name,
		InstrumentSymbol:     h.InstrumentSymbol,
		LookupSymbol:         h.LookupSymbol,
		Shares:               dec(h.Shares, "shares"),
		UnitCost:             dec(h.UnitCost, "unit_cost"),
		ManualPrice:          nullDec(h.ManualPrice, "manual_price"),
		ContributionOverride: nullDec(h.ContributionOverride, "contribution_override"),
		ValueOverride:        nullDec(h.ValueOverride, "value_override"),
		AutoTrackPrice:       h.AutoTrackPrice,
		ConvertCurrency:      h.ConvertCurrency,
		Currency:             h.Currency,
		FXRate:               nullDec(h.FXRate, "fx_rate"),
	}
	if err := errors.Join(errs...); err != nil {
		return models.HoldingInput{}, err
	}
	return in, nil
}

// seedDate parses an optional YYYY-MM-DD date as noon UTC, or returns fallback.
func seedDate(s string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	t, err := validation.ValidateDateString(s, "as_of")
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(12 * time.Hour), nil
}

// applySeed appends every seeded holding edit and price to the store behind ledger and prices.
// clock is moved to each edit's date before the edit is written.
func applySeed(ctx context.Context, seed seedFile, ledger services.LedgerService, prices services.PriceService, setClock func(time.Time), now time.Time) (holdings, observations int, err error) {
	for i, h := range seed.Holdings {
		in, err := h.input()
		if err != nil {
			return holdings, observations, fmt.Errorf("holding %d: %w", i+1, err)
		}
		at, err := seedDate(h.AsOf, now)
		if err != nil {
			return holdings, observations, fmt.Errorf("holding %d: %w", i+1, err)
		}
		setClock(at)
		created, err := ledger.CreateHolding(ctx, seed.User, in)
		if err != nil {
			return holdings, observations, fmt.Errorf("holding %d (%s): %w", i+1, h.Name, err)
		}
		holdings++

		for j, e := range h.Edits {
			edited := h
			edited.Shares, edited.UnitCost = e.Shares, e.UnitCost
			if edited.UnitCost == "" {
				edited.UnitCost = h.UnitCost
			}
			in, err := edited.input()
			if err != nil {
				return holdings, observations, fmt.Errorf("holding %d edit %d: %w", i+1, j+1, err)
			}
			if at, err = seedDate(e.AsOf, now); err != nil {
				return holdings, observations, fmt.Errorf("holding %d edit %d: %w", i+1, j+1, err)
			}
			setClock(at)
			if _, err := ledger.UpdateHolding(ctx, seed.User, created.GroupID, in); err != nil {
				return holdings, observations, fmt.Errorf("holding %d edit %d: %w", i+1, j+1, err)
			}
		}

		if h.DeletedOn != "" {
			if at, err = seedDate(h.DeletedOn, now); err != nil {
				return holdings, observations, fmt.Errorf("holding %d: %w", i+1, err)
			}
			setClock(at)
			if _, err := ledger.DeleteHolding(ctx, seed.User, created.GroupID); err != nil {
				return holdings, observations, fmt.Errorf("holding %d: %w", i+1, err)
			}
		}
	}

	for i, p := range seed.Prices {
		obs, err := parseObservation(p.Symbol, p.Date, p.Price)
		if err != nil {
			return holdings, observations, fmt.Errorf("price %d: %w", i+1, err)
		}
		obs.Source = "seed"
		if err := prices.RecordPrice(ctx, obs); err != nil {
			return holdings, observations, fmt.Errorf("price %d: %w", i+1, err)
		}
		observations++
	}
	return holdings, observations, nil
}

type seedCmd struct {
	file string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "load holdings and prices from a YAML file" }
func (*seedCmd) Usage() string {
	return `portfolioctl seed -file <holdings.yaml>

  Appends the holdings (with their dated edits) and price observations of a
  YAML file to the ledger. Example:

    user: alice
    holdings:
      - as_of: 2024-01-02
        account_type: TFSA
        category: Equity
        name: Vanguard S&P 500
        instrument_symbol: VFV.TO
        shares: "10"
        unit_cost: "100"
        auto_track_price: true
        edits:
          - as_of: 2024-02-01
            shares: "15"
    prices:
      - symbol: VFV.TO
        date: 2024-02-15
        price: "121.30"
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "seed file")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		return subcommands.ExitUsageError
	}
	fh, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	seed, err := parseSeed(fh, config.Cfg.DefaultUserID)
	fh.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", c.file, err)
		return subcommands.ExitUsageError
	}

	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	now := time.Now().UTC()
	clock := now
	rates := processors.NewExchangeRateProcessor(config.Cfg.BaseCurrency, nil)
	ledger := services.NewLedgerServiceAt(e.db, rates, e.portfolio, func() time.Time { return clock })

	holdings, observations, err := applySeed(ctx, seed, ledger, e.prices, func(t time.Time) { clock = t }, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Seeded %d holdings and %d prices for %s\n", holdings, observations, seed.User)
	return subcommands.ExitSuccess
}
