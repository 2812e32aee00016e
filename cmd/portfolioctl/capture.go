package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/username/portfoliotracker/src/config"
	"github.com/username/portfoliotracker/src/services"
)

type captureCmd struct {
	force bool
}

func (*captureCmd) Name() string     { return "capture" }
func (*captureCmd) Synopsis() string { return "capture today's price of every tracked symbol" }
func (*captureCmd) Usage() string {
	return `portfolioctl capture [-force]

  Fetches a quote for every auto-tracked symbol and stores it for today.
  Outside market hours nothing is captured unless -force is given.
`
}

func (c *captureCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "capture even when the market is closed")
}

func (c *captureCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	loc, err := time.LoadLocation(config.Cfg.MarketTimezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading MARKET_TIMEZONE: %v\n", err)
		return subcommands.ExitFailure
	}
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	capture := services.NewCaptureService(e.db, newFetcher(), e.portfolio, services.MarketHours{
		Location:      loc,
		OpenHour:      config.Cfg.MarketOpenHour,
		CloseHour:     config.Cfg.MarketCloseHour,
		CaptureMinute: config.Cfg.CaptureMinute,
	}, false)

	now := time.Now()
	if !c.force && !capture.IsMarketOpen(now) {
		fmt.Printf("Market closed in %s, next capture at %s. Use -force to capture anyway.\n",
			loc, capture.NextRun(now).Format(time.RFC3339))
		return subcommands.ExitSuccess
	}

	result, err := capture.CapturePrices(ctx, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error capturing prices: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, p := range result.Captured {
		fmt.Printf("%-12s %12.4f\n", p.Symbol, p.Price)
	}
	for _, f := range result.Failed {
		fmt.Fprintf(os.Stderr, "%-12s failed: %s\n", f.Symbol, f.Error)
	}
	if len(result.Failed) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
