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

type movementCmd struct {
	user      string
	rangeFlag string
	raw       bool
}

func (*movementCmd) Name() string     { return "movement" }
func (*movementCmd) Synopsis() string { return "show how the portfolio value moved over a range" }
func (*movementCmd) Usage() string {
	return `portfolioctl movement [-user <id>] [-range 7d|1m|3m|ytd|all] [-raw]

  Reconstructs the portfolio value at each sample date of the range.
  The last point is the live total. Historical points are rebased onto it
  unless -raw is given.
`
}

func (c *movementCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", config.Cfg.DefaultUserID, "user id")
	f.StringVar(&c.rangeFlag, "range", "1m", "range token")
	f.BoolVar(&c.raw, "raw", false, "do not rebase historical points")
}

func (c *movementCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	mode := models.RebaseRatio
	if c.raw {
		mode = models.RebaseNone
	}
	result, err := e.portfolio.Movement(ctx, c.user, c.rangeFlag, mode, models.Filters{}, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing movement: %v\n", err)
		return subcommands.ExitUsageError
	}
	printMarkdown(movementMarkdown(result, config.Cfg.BaseCurrency))
	return subcommands.ExitSuccess
}

func movementMarkdown(m models.MovementResult, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Movement over %s (%s)\n\n", m.Range, m.Mode)
	fmt.Fprintf(&b, "Value %s, %s since %s (%s)\n\n",
		formatMoney(m.CurrentValue, currency), formatMoney(m.Change, currency),
		m.Since.Format(models.DateLayout), formatPercent(m.ChangePercent))
	b.WriteString("| Date | Value |\n|---|---:|\n")
	for _, p := range m.Points {
		fmt.Fprintf(&b, "| %s | %s |\n", p.Timestamp.Format("2006-01-02 15:04"), formatMoney(p.Value, currency))
	}
	return b.String()
}
