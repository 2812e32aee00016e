package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/model"
	"github.com/username/portfoliotracker/src/models"
	"github.com/username/portfoliotracker/src/security/validation"
)

type pricesCmd struct {
	symbol string
	limit  int
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "list recorded price observations" }
func (*pricesCmd) Usage() string {
	return `portfolioctl prices [-symbol <symbol>] [-n <count>]

  Lists the most recent observations, newest first.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "only this symbol")
	f.IntVar(&c.limit, "n", 30, "number of observations")
}

func (c *pricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	var observations []models.PriceObservation
	if c.symbol != "" {
		observations, err = e.prices.PriceHistory(ctx, c.symbol, c.limit)
	} else {
		observations, err = model.GetRecentPrices(ctx, e.db, c.limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prices: %v\n", err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	b.WriteString("| Symbol | Date | Price | Source |\n|---|---|---:|---|\n")
	for _, o := range observations {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", o.Symbol, o.Date, o.Price.String(), o.Source)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type addPriceCmd struct {
	symbol   string
	date     string
	price    string
	currency string
}

func (*addPriceCmd) Name() string     { return "add-price" }
func (*addPriceCmd) Synopsis() string { return "record a manual price observation" }
func (*addPriceCmd) Usage() string {
	return `portfolioctl add-price -symbol <symbol> -price <price> [-date YYYY-MM-DD]

  Records the price of a symbol for a day, replacing any observation of that day.
`
}

func (c *addPriceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "instrument symbol")
	f.StringVar(&c.date, "date", models.DateKey(time.Now()), "observation date")
	f.StringVar(&c.price, "price", "", "price, greater than zero")
	f.StringVar(&c.currency, "currency", "", "quote currency")
}

func (c *addPriceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	obs, err := parseObservation(c.symbol, c.date, c.price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	obs.Currency = strings.ToUpper(c.currency)

	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	if err := e.prices.RecordPrice(ctx, obs); err != nil {
		fmt.Fprintf(os.Stderr, "Error recording price: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s at %s on %s\n", obs.Symbol, obs.Price, obs.Date)
	return subcommands.ExitSuccess
}

// parseObservation validates a manual observation.
func parseObservation(symbol, date, price string) (models.PriceObservation, error) {
	symbol = models.NormalizeSymbol(symbol)
	if err := validation.ValidateSymbol(symbol, "symbol"); err != nil {
		return models.PriceObservation{}, err
	}
	on, err := validation.ValidateDateString(date, "date")
	if err != nil {
		return models.PriceObservation{}, err
	}
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return models.PriceObservation{}, fmt.Errorf("%w: price %q is not a number", validation.ErrValidationFailed, price)
	}
	if err := validation.ValidatePositive(p, "price"); err != nil {
		return models.PriceObservation{}, err
	}
	return models.PriceObservation{Symbol: symbol, Date: models.DateKey(on), Price: p, Source: "manual"}, nil
}
