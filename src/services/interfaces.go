package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/models"
	"github.com/username/portfoliotracker/src/processors"
)

// Define common service errors
var (
	ErrHoldingNotFound  = errors.New("holding not found")
	ErrQuoteUnavailable = errors.New("quote unavailable")
)

// QuoteFetcher fetches the latest quote of an instrument.
type QuoteFetcher interface {
	FetchPrice(ctx context.Context, symbol string) (models.Quote, error)
}

// RateProvider resolves FX rates into the base currency.
type RateProvider interface {
	GetExchangeRate(ctx context.Context, currency string, date time.Time) (decimal.Decimal, error)
	BaseCurrency() string
}

// CacheInvalidator drops cached results after writes.
type CacheInvalidator interface {
	InvalidateUserCache(userID string)
	InvalidateAll()
}

// LedgerService appends holding edits and exposes their audit trail.
type LedgerService interface {
	CreateHolding(ctx context.Context, userID string, input models.HoldingInput) (models.HoldingEdit, error)
	UpdateHolding(ctx context.Context, userID, groupID string, input models.HoldingInput) (models.HoldingEdit, error)
	DeleteHolding(ctx context.Context, userID, groupID string) (models.HoldingEdit, error)
	GroupHistory(ctx context.Context, userID, groupID string) ([]models.HoldingEdit, error)
}

// PriceService records and serves price observations.
type PriceService interface {
	// FetchAndRecord fetches a quote and stores it as the observation for now's date.
	FetchAndRecord(ctx context.Context, symbol string, now time.Time) (models.Quote, error)
	RecordPrice(ctx context.Context, obs models.PriceObservation) error
	PriceHistory(ctx context.Context, symbol string, days int) ([]models.PriceObservation, error)
}

// CaptureResult reports one capture run.
type CaptureResult struct {
	Date     string           `json:"date"`
	Captured []CapturedPrice  `json:"captured"`
	Failed   []CaptureFailure `json:"failed"`
}

// CapturedPrice is a stored observation.
type CapturedPrice struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// CaptureFailure is a symbol whose quote could not be fetched. Nothing was stored for it.
type CaptureFailure struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}

// SchedulerStatus describes the in-process capture scheduler.
type SchedulerStatus struct {
	Enabled    bool           `json:"enabled"`
	Running    bool           `json:"running"`
	MarketOpen bool           `json:"market_open"`
	NextRun    *time.Time     `json:"next_run"`
	LastRun    *time.Time     `json:"last_run"`
	LastResult *CaptureResult `json:"last_result,omitempty"`
	Timezone   string         `json:"timezone"`
	Schedule   string         `json:"schedule"`
}

// CaptureService captures one observation per tracked symbol and schedules captures.
type CaptureService interface {
	CapturePrices(ctx context.Context, now time.Time) (CaptureResult, error)
	IsMarketOpen(now time.Time) bool
	NextRun(now time.Time) time.Time
	Start(ctx context.Context)
	Status(now time.Time) SchedulerStatus
}

// PortfolioService answers valuation queries for one user.
type PortfolioService interface {
	CacheInvalidator
	Snapshot(ctx context.Context, userID string, now time.Time) (processors.Snapshot, error)
	CurrentPortfolio(ctx context.Context, userID string, filters models.Filters, now time.Time) (models.PortfolioResponse, error)
	Movement(ctx context.Context, userID, rangeToken string, mode models.RebaseMode, filters models.Filters, now time.Time) (models.MovementResult, error)
	History(ctx context.Context, userID string, days int, mode models.RebaseMode, now time.Time) (models.HistoryResult, error)
	ByAccountType(ctx context.Context, userID string, now time.Time) ([]models.AccountTypeSummary, error)
}
