package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/config"
	"github.com/username/portfoliotracker/src/database"
	"github.com/username/portfoliotracker/src/services"
)

// env is the store and services a command works with.
type env struct {
	db        *sql.DB
	portfolio services.PortfolioService
	prices    services.PriceService
}

// openEnv opens and migrates the configured database.
func openEnv() (*env, error) {
	path := *dbPath
	if path == "" {
		path = config.Cfg.DatabasePath
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return newEnv(db), nil
}

func newEnv(db *sql.DB) *env {
	portfolio := services.NewPortfolioService(db, cache.New(time.Minute, services.CacheCleanupInterval), time.Minute)
	return &env{
		db:        db,
		portfolio: portfolio,
		prices:    services.NewPriceService(db, newFetcher(), portfolio),
	}
}

func newFetcher() services.QuoteFetcher {
	return services.NewYahooQuoteFetcher(services.DefaultYahooEndpoints, config.Cfg.QuoteRequestsPerSecond)
}

func (e *env) Close() error { return e.db.Close() }

// formatMoney renders an amount in the base currency, e.g. "$1,234.50".
func formatMoney(d decimal.Decimal, currency string) string {
	cur := money.New(0, currency).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

func formatPercent(d decimal.Decimal) string {
	s := d.StringFixed(2) + "%"
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// escapeCell keeps user labels from breaking a markdown table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func printMarkdown(md string) {
	if *plain {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Fprintf(os.Stderr, "Error rendering markdown: %v\n", err)
	fmt.Print(md)
}
