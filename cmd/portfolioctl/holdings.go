package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/username/portfoliotracker/src/config"
	"github.com/username/portfoliotracker/src/models"
)

type holdingsCmd struct {
	user     string
	account  string
	category string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "list a user's current holdings with their valuation" }
func (*holdingsCmd) Usage() string {
	return `portfolioctl holdings [-user <id>] [-account <type>] [-category <name>]

  Values the current holdings with the latest known prices.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", config.Cfg.DefaultUserID, "user id")
	f.StringVar(&c.account, "account", "", "only this account type")
	f.StringVar(&c.category, "category", "", "only this category")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	now := time.Now()
	snap, err := e.portfolio.Snapshot(ctx, c.user, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	holdings, totals := snap.Live(now, models.Filters{Account: c.account, Category: c.category})
	printMarkdown(holdingsMarkdown(c.user, holdings, totals, config.Cfg.BaseCurrency))
	return subcommands.ExitSuccess
}

func holdingsMarkdown(user string, holdings []models.ValuedHolding, totals models.Totals, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Holdings of %s\n\n", user)
	if len(holdings) == 0 {
		b.WriteString("No holdings.\n")
		return b.String()
	}
	b.WriteString("| Account | Category | Name | Valuation | Value | Contribution | Gain |\n")
	b.WriteString("|---|---|---|---|---:|---:|---:|\n")
	for _, h := range holdings {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			escapeCell(h.AccountType), escapeCell(h.Category), escapeCell(h.Name), h.Strategy.Kind,
			formatMoney(h.Value, currency), formatMoney(h.Contribution, currency), formatPercent(h.GainPercent))
	}
	fmt.Fprintf(&b, "\n**Total** %s, contributed %s, gain %s (%s)\n",
		formatMoney(totals.Value, currency), formatMoney(totals.Contribution, currency),
		formatMoney(totals.Gain, currency), formatPercent(totals.GainPercent))
	return b.String()
}
