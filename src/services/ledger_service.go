package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/model"
	"github.com/username/portfoliotracker/src/models"
	"github.com/username/portfoliotracker/src/processors"
	"github.com/username/portfoliotracker/src/security/validation"
)

type ledgerServiceImpl struct {
	db          *sql.DB
	rates       RateProvider
	invalidator CacheInvalidator
	now         func() time.Time
}

// NewLedgerService creates the ledger write service. rates may be nil when
// every converted holding supplies its own fx_rate.
func NewLedgerService(db *sql.DB, rates RateProvider, invalidator CacheInvalidator) LedgerService {
	return NewLedgerServiceAt(db, rates, invalidator, func() time.Time { return time.Now().UTC() })
}

// NewLedgerServiceAt is NewLedgerService with the clock that stamps sequence times.
// Seeding backdated ledgers uses it.
func NewLedgerServiceAt(db *sql.DB, rates RateProvider, invalidator CacheInvalidator, clock func() time.Time) LedgerService {
	return &ledgerServiceImpl{
		db:          db,
		rates:       rates,
		invalidator: invalidator,
		now:         clock,
	}
}

func (s *ledgerServiceImpl) CreateHolding(ctx context.Context, userID string, input models.HoldingInput) (models.HoldingEdit, error) {
	edit, err := s.editFromInput(ctx, input)
	if err != nil {
		return models.HoldingEdit{}, err
	}
	edit.GroupID = uuid.NewString()
	edit.UserID = userID
	return s.appendEdit(ctx, edit)
}

func (s *ledgerServiceImpl) UpdateHolding(ctx context.Context, userID, groupID string, input models.HoldingInput) (models.HoldingEdit, error) {
	if _, err := s.currentEdit(ctx, userID, groupID); err != nil {
		return models.HoldingEdit{}, err
	}
	edit, err := s.editFromInput(ctx, input)
	if err != nil {
		return models.HoldingEdit{}, err
	}
	edit.GroupID = groupID
	edit.UserID = userID
	return s.appendEdit(ctx, edit)
}

// DeleteHolding appends a copy of the current state marked as deleted.
func (s *ledgerServiceImpl) DeleteHolding(ctx context.Context, userID, groupID string) (models.HoldingEdit, error) {
	current, err := s.currentEdit(ctx, userID, groupID)
	if err != nil {
		return models.HoldingEdit{}, err
	}
	tombstone := current
	tombstone.ID = 0
	tombstone.IsDeleted = true
	tombstone.SequenceTime = s.now()
	return s.appendEdit(ctx, tombstone)
}

func (s *ledgerServiceImpl) GroupHistory(ctx context.Context, userID, groupID string) ([]models.HoldingEdit, error) {
	edits, err := model.GetGroupEdits(ctx, s.db, userID, groupID)
	if err != nil {
		return nil, err
	}
	if len(edits) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrHoldingNotFound, groupID)
	}
	return edits, nil
}

func (s *ledgerServiceImpl) currentEdit(ctx context.Context, userID, groupID string) (models.HoldingEdit, error) {
	edits, err := model.GetGroupEdits(ctx, s.db, userID, groupID)
	if err != nil {
		return models.HoldingEdit{}, err
	}
	current, ok := processors.NewLedger(edits).Group(groupID)
	if !ok {
		return models.HoldingEdit{}, fmt.Errorf("%w: %s", ErrHoldingNotFound, groupID)
	}
	return current, nil
}

func (s *ledgerServiceImpl) appendEdit(ctx context.Context, edit models.HoldingEdit) (models.HoldingEdit, error) {
	id, err := model.InsertHoldingEdit(ctx, s.db, edit)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to append holding edit", "groupID", edit.GroupID, "error", err)
		return models.HoldingEdit{}, err
	}
	edit.ID = id
	if s.invalidator != nil {
		s.invalidator.InvalidateUserCache(edit.UserID)
	}
	logger.FromContext(ctx).Info("Holding edit appended", "groupID", edit.GroupID, "editID", id, "deleted", edit.IsDeleted)
	return edit, nil
}

// editFromInput validates input and resolves the FX rate to store on the edit.
func (s *ledgerServiceImpl) editFromInput(ctx context.Context, input models.HoldingInput) (models.HoldingEdit, error) {
	if err := validation.NormalizeHoldingInput(&input); err != nil {
		return models.HoldingEdit{}, err
	}
	now := s.now()

	edit := models.HoldingEdit{
		SequenceTime:         now,
		AccountType:          input.AccountType,
		AccountLabel:         input.AccountLabel,
		Category:             input.Category,
		Name:                 input.Name,
		InstrumentSymbol:     models.NormalizeSymbol(input.InstrumentSymbol),
		LookupSymbol:         models.NormalizeSymbol(input.LookupSymbol),
		Shares:               input.Shares,
		UnitCost:             input.UnitCost,
		ManualPrice:          input.ManualPrice,
		ContributionOverride: input.ContributionOverride,
		ValueOverride:        input.ValueOverride,
		AutoTrackPrice:       input.AutoTrackPrice,
		ConvertCurrency:      input.ConvertCurrency,
		Currency:             input.Currency,
		FXRate:               input.FXRate,
	}

	if edit.ConvertCurrency && !edit.FXRate.Valid {
		if s.rates == nil {
			return models.HoldingEdit{}, fmt.Errorf("%w: fx_rate is required for %s", validation.ErrValidationFailed, edit.Currency)
		}
		rate, err := s.rates.GetExchangeRate(ctx, edit.Currency, now)
		if err != nil {
			logger.FromContext(ctx).Warn("Could not resolve FX rate for holding edit", "currency", edit.Currency, "error", err)
			return models.HoldingEdit{}, fmt.Errorf("%w: fx rate %s: %v", ErrQuoteUnavailable, edit.Currency, err)
		}
		edit.FXRate = decimal.NewNullDecimal(rate)
	}
	return edit, nil
}
