package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/models"
)

// The holding_edits table is append-only: this file has no UPDATE or DELETE statements.

const holdingEditColumns = `id, group_id, user_id, sequence_ns, account_type, account_label, category, name,
	instrument_symbol, lookup_symbol, shares, unit_cost, manual_price, contribution_override, value_override,
	auto_track_price, convert_currency, currency, fx_rate, is_deleted`

// InsertHoldingEdit appends one edit to the ledger and returns its insertion id.
func InsertHoldingEdit(ctx context.Context, db *sql.DB, edit models.HoldingEdit) (int64, error) {
	query := `
		INSERT INTO holding_edits (group_id, user_id, sequence_ns, account_type, account_label, category, name,
			instrument_symbol, lookup_symbol, shares, unit_cost, manual_price, contribution_override, value_override,
			auto_track_price, convert_currency, currency, fx_rate, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, query,
		edit.GroupID,
		edit.UserID,
		edit.SequenceTime.UnixNano(),
		edit.AccountType,
		edit.AccountLabel,
		edit.Category,
		edit.Name,
		nullString(edit.InstrumentSymbol),
		nullString(edit.LookupSymbol),
		edit.Shares,
		edit.UnitCost,
		edit.ManualPrice,
		edit.ContributionOverride,
		edit.ValueOverride,
		edit.AutoTrackPrice,
		edit.ConvertCurrency,
		edit.Currency,
		edit.FXRate,
		edit.IsDeleted,
	)
	if err != nil {
		return 0, fmt.Errorf("insert holding edit for group %s: %w", edit.GroupID, err)
	}
	return res.LastInsertId()
}

// GetHoldingEditsByUser returns every edit of a user in ledger order (sequence time, then insertion id).
func GetHoldingEditsByUser(ctx context.Context, db *sql.DB, userID string) ([]models.HoldingEdit, error) {
	query := `SELECT ` + holdingEditColumns + ` FROM holding_edits WHERE user_id = ? ORDER BY sequence_ns ASC, id ASC`
	return queryHoldingEdits(ctx, db, query, userID)
}

// GetGroupEdits returns every edit of one group, newest first.
func GetGroupEdits(ctx context.Context, db *sql.DB, userID, groupID string) ([]models.HoldingEdit, error) {
	query := `SELECT ` + holdingEditColumns + ` FROM holding_edits WHERE user_id = ? AND group_id = ? ORDER BY sequence_ns DESC, id DESC`
	return queryHoldingEdits(ctx, db, query, userID, groupID)
}

// GetAutoTrackedEdits returns the edits of every group that has ever been auto-tracked, across all users.
// Callers resolve the current state themselves.
func GetAutoTrackedEdits(ctx context.Context, db *sql.DB) ([]models.HoldingEdit, error) {
	query := `SELECT ` + holdingEditColumns + ` FROM holding_edits
		WHERE group_id IN (SELECT DISTINCT group_id FROM holding_edits WHERE auto_track_price = 1)
		ORDER BY sequence_ns ASC, id ASC`
	return queryHoldingEdits(ctx, db, query)
}

// LedgerStats summarises the ledger for operators.
type LedgerStats struct {
	Edits  int
	Groups int
	Users  int
}

// GetLedgerStats counts edits, groups and users.
func GetLedgerStats(ctx context.Context, db *sql.DB) (LedgerStats, error) {
	var s LedgerStats
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT group_id), COUNT(DISTINCT user_id) FROM holding_edits`,
	).Scan(&s.Edits, &s.Groups, &s.Users)
	if err != nil {
		return LedgerStats{}, fmt.Errorf("ledger stats: %w", err)
	}
	return s, nil
}

func queryHoldingEdits(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.HoldingEdit, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query holding edits: %w", err)
	}
	defer rows.Close()

	var edits []models.HoldingEdit
	for rows.Next() {
		edit, err := scanHoldingEdit(rows)
		if err != nil {
			return nil, err
		}
		edits = append(edits, edit)
	}
	return edits, rows.Err()
}

func scanHoldingEdit(rows *sql.Rows) (models.HoldingEdit, error) {
	var (
		e                      models.HoldingEdit
		sequenceNS             int64
		instrument, lookup     sql.NullString
		manual, contrib, value decimal.NullDecimal
		fxRate                 decimal.NullDecimal
	)
	err := rows.Scan(
		&e.ID,
		&e.GroupID,
		&e.UserID,
		&sequenceNS,
		&e.AccountType,
		&e.AccountLabel,
		&e.Category,
		&e.Name,
		&instrument,
		&lookup,
		&e.Shares,
		&e.UnitCost,
		&manual,
		&contrib,
		&value,
		&e.AutoTrackPrice,
		&e.ConvertCurrency,
		&e.Currency,
		&fxRate,
		&e.IsDeleted,
	)
	if err != nil {
		// A row that cannot be scanned is a corrupt ledger, not a missing value.
		return models.HoldingEdit{}, fmt.Errorf("scan holding edit: %w", err)
	}
	e.SequenceTime = time.Unix(0, sequenceNS).UTC()
	e.InstrumentSymbol = instrument.String
	e.LookupSymbol = lookup.String
	e.ManualPrice = manual
	e.ContributionOverride = contrib
	e.ValueOverride = value
	e.FXRate = fxRate
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
