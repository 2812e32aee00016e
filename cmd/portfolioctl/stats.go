package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/username/portfoliotracker/src/model"
)

type statsCmd struct{}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "summarise the ledger and the price series" }
func (*statsCmd) Usage() string {
	return `portfolioctl stats
`
}

func (*statsCmd) SetFlags(*flag.FlagSet) {}

func (*statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	ledger, err := model.GetLedgerStats(ctx, e.db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	prices, err := model.GetPriceStats(ctx, e.db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(statsMarkdown(ledger, prices))
	return subcommands.ExitSuccess
}

func statsMarkdown(ledger model.LedgerStats, prices model.PriceStats) string {
	var b strings.Builder
	b.WriteString("# Database\n\n## Ledger\n\n")
	fmt.Fprintf(&b, "- %d edits\n- %d holdings\n- %d users\n\n", ledger.Edits, ledger.Groups, ledger.Users)
	b.WriteString("## Prices\n\n")
	fmt.Fprintf(&b, "- %d observations\n- %d symbols\n", prices.Observations, prices.Symbols)
	if prices.Observations > 0 {
		fmt.Fprintf(&b, "- from %s to %s\n", prices.FirstDate, prices.LastDate)
	}
	return b.String()
}
