package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/models"
)

// InsertOrUpdatePrice saves an observation, superseding any existing one for the same symbol and day.
func InsertOrUpdatePrice(ctx context.Context, db *sql.DB, obs models.PriceObservation) error {
	source := obs.Source
	if source == "" {
		source = "capture"
	}
	query := `
        INSERT INTO daily_prices (ticker_symbol, date, price, currency, source, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(ticker_symbol, date) DO UPDATE SET
            price = excluded.price,
            currency = excluded.currency,
            source = excluded.source,
            updated_at = excluded.updated_at;
    `
	_, err := db.ExecContext(ctx, query, models.NormalizeSymbol(obs.Symbol), obs.Date, obs.Price, obs.Currency, source, time.Now().UTC())
	if err != nil {
		logger.FromContext(ctx).Error("Failed to insert or update daily price", "ticker", obs.Symbol, "date", obs.Date, "error", err)
		return fmt.Errorf("upsert price %s@%s: %w", obs.Symbol, obs.Date, err)
	}
	return nil
}

// GetPriceAsOf returns the observation with the greatest date <= date. found is false when there is none.
func GetPriceAsOf(ctx context.Context, db *sql.DB, symbol, date string) (obs models.PriceObservation, found bool, err error) {
	query := `SELECT ticker_symbol, date, price, currency, source, updated_at FROM daily_prices
		WHERE ticker_symbol = ? AND date <= ? ORDER BY date DESC LIMIT 1`
	row := db.QueryRowContext(ctx, query, models.NormalizeSymbol(symbol), date)
	if err := row.Scan(&obs.Symbol, &obs.Date, &obs.Price, &obs.Currency, &obs.Source, &obs.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PriceObservation{}, false, nil
		}
		return models.PriceObservation{}, false, fmt.Errorf("price as of %s for %s: %w", date, symbol, err)
	}
	return obs, true, nil
}

// GetPricesForSymbols returns all observations of the given symbols dated on or before upTo, oldest first.
func GetPricesForSymbols(ctx context.Context, db *sql.DB, symbols []string, upTo string) ([]models.PriceObservation, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	query := `SELECT ticker_symbol, date, price, currency, source, updated_at FROM daily_prices
		WHERE date <= ? AND ticker_symbol IN (?` + strings.Repeat(",?", len(symbols)-1) + `)
		ORDER BY ticker_symbol ASC, date ASC`
	args := make([]any, len(symbols)+1)
	args[0] = upTo
	for i, s := range symbols {
		args[i+1] = models.NormalizeSymbol(s)
	}
	return queryPrices(ctx, db, query, args...)
}

// GetPriceHistory returns the most recent observations of a symbol, newest first.
func GetPriceHistory(ctx context.Context, db *sql.DB, symbol string, limit int) ([]models.PriceObservation, error) {
	query := `SELECT ticker_symbol, date, price, currency, source, updated_at FROM daily_prices
		WHERE ticker_symbol = ? ORDER BY date DESC LIMIT ?`
	return queryPrices(ctx, db, query, models.NormalizeSymbol(symbol), limit)
}

// GetRecentPrices returns the most recent observations across all symbols, newest first.
func GetRecentPrices(ctx context.Context, db *sql.DB, limit int) ([]models.PriceObservation, error) {
	query := `SELECT ticker_symbol, date, price, currency, source, updated_at FROM daily_prices
		ORDER BY date DESC, ticker_symbol ASC LIMIT ?`
	return queryPrices(ctx, db, query, limit)
}

// PriceStats summarises the price table for operators.
type PriceStats struct {
	Observations int
	Symbols      int
	FirstDate    string
	LastDate     string
}

// GetPriceStats counts observations and symbols.
func GetPriceStats(ctx context.Context, db *sql.DB) (PriceStats, error) {
	var (
		s           PriceStats
		first, last sql.NullString
	)
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT ticker_symbol), MIN(date), MAX(date) FROM daily_prices`,
	).Scan(&s.Observations, &s.Symbols, &first, &last)
	if err != nil {
		return PriceStats{}, fmt.Errorf("price stats: %w", err)
	}
	s.FirstDate, s.LastDate = first.String, last.String
	return s, nil
}

func queryPrices(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.PriceObservation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var prices []models.PriceObservation
	for rows.Next() {
		var p models.PriceObservation
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Price, &p.Currency, &p.Source, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
