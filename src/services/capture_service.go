package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/model"
	"github.com/username/portfoliotracker/src/models"
	"github.com/username/portfoliotracker/src/processors"
)

// MarketHours is the weekday capture window, in Location.
type MarketHours struct {
	Location      *time.Location
	OpenHour      int // inclusive
	CloseHour     int // inclusive, at minute 0
	CaptureMinute int
}

type captureServiceImpl struct {
	db          *sql.DB
	fetcher     QuoteFetcher
	invalidator CacheInvalidator
	hours       MarketHours
	enabled     bool
	clock       func() time.Time

	mu         sync.Mutex
	running    bool
	lastRun    time.Time
	lastResult *CaptureResult
}

// NewCaptureService creates the capture service. enabled controls whether Start runs the scheduler.
func NewCaptureService(db *sql.DB, fetcher QuoteFetcher, invalidator CacheInvalidator, hours MarketHours, enabled bool) CaptureService {
	if hours.Location == nil {
		hours.Location = time.UTC
	}
	return &captureServiceImpl{
		db:          db,
		fetcher:     fetcher,
		invalidator: invalidator,
		hours:       hours,
		enabled:     enabled,
		clock:       time.Now,
	}
}

// CapturePrices stores one observation per tracked symbol for now's date.
// A failed symbol is reported and skipped; re-running the same day supersedes.
func (s *captureServiceImpl) CapturePrices(ctx context.Context, now time.Time) (CaptureResult, error) {
	log := logger.FromContext(ctx)

	edits, err := model.GetAutoTrackedEdits(ctx, s.db)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("load tracked holdings: %w", err)
	}
	symbols := processors.NewLedger(edits).TrackedSymbols()

	result := CaptureResult{
		Date:     models.DateKey(now),
		Captured: []CapturedPrice{},
		Failed:   []CaptureFailure{},
	}
	log.Info("Capturing prices", "date", result.Date, "symbols", len(symbols))

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		quote, err := s.fetcher.FetchPrice(ctx, symbol)
		if err != nil {
			log.Warn("Price capture failed for symbol", "symbol", symbol, "error", err)
			result.Failed = append(result.Failed, CaptureFailure{Symbol: symbol, Error: err.Error()})
			continue
		}
		obs := models.PriceObservation{
			Symbol:   symbol,
			Date:     result.Date,
			Price:    quote.Price,
			Currency: quote.Currency,
			Source:   "capture",
		}
		if err := model.InsertOrUpdatePrice(ctx, s.db, obs); err != nil {
			result.Failed = append(result.Failed, CaptureFailure{Symbol: symbol, Error: err.Error()})
			continue
		}
		result.Captured = append(result.Captured, CapturedPrice{Symbol: symbol, Price: quote.Price.InexactFloat64()})
	}

	if len(result.Captured) > 0 && s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}

	s.mu.Lock()
	s.lastRun = now
	s.lastResult = &result
	s.mu.Unlock()

	log.Info("Price capture finished", "date", result.Date, "captured", len(result.Captured), "failed", len(result.Failed))
	return result, nil
}

// IsMarketOpen reports whether now falls on a weekday between the open hour and
// the close hour (inclusive, at minute 0) in the market timezone.
func (s *captureServiceImpl) IsMarketOpen(now time.Time) bool {
	local := now.In(s.hours.Location)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= s.hours.OpenHour*60 && minutes <= s.hours.CloseHour*60
}

// NextRun returns the first capture instant strictly after now: CaptureMinute
// past an hour between the open and close hours, on a weekday.
func (s *captureServiceImpl) NextRun(now time.Time) time.Time {
	local := now.In(s.hours.Location)
	t := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), s.hours.CaptureMinute, 0, 0, s.hours.Location)
	if !t.After(now) {
		t = t.Add(time.Hour)
	}
	// At most a long weekend of hours to scan.
	for i := 0; i < 24*8; i++ {
		wd := t.Weekday()
		if wd != time.Saturday && wd != time.Sunday && t.Hour() >= s.hours.OpenHour && t.Hour() <= s.hours.CloseHour {
			return t
		}
		t = t.Add(time.Hour)
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), s.hours.CaptureMinute, 0, 0, s.hours.Location)
	}
	return t
}

// Start runs the capture scheduler until ctx is done. It is a no-op when disabled or already running.
func (s *captureServiceImpl) Start(ctx context.Context) {
	if !s.enabled {
		logger.L.Info("Price capture scheduler disabled")
		return
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		for {
			next := s.NextRun(s.clock())
			logger.L.Info("Next price capture scheduled", "at", next.Format(time.RFC3339))
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.L.Info("Price capture scheduler stopped")
				return
			case <-timer.C:
				s.runScheduled(ctx, next)
			}
		}
	}()
	logger.L.Info("Price capture scheduler started", "timezone", s.hours.Location.String())
}

// runScheduled captures at the actual clock time. A timer that fired outside
// the hour it was scheduled for (a stalled process or a suspended host) is
// skipped, so a quote is never filed under an earlier date.
func (s *captureServiceImpl) runScheduled(ctx context.Context, next time.Time) bool {
	fired := s.clock()
	planned, actual := next.In(s.hours.Location), fired.In(s.hours.Location)
	if actual.Year() != planned.Year() || actual.YearDay() != planned.YearDay() || actual.Hour() != planned.Hour() {
		logger.L.Warn("Skipping late price capture", "scheduled", next.Format(time.RFC3339), "fired", fired.Format(time.RFC3339))
		return false
	}
	if _, err := s.CapturePrices(ctx, fired); err != nil {
		logger.L.Error("Scheduled price capture failed", "error", err)
		return false
	}
	return true
}

func (s *captureServiceImpl) Status(now time.Time) SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SchedulerStatus{
		Enabled:    s.enabled,
		Running:    s.running,
		MarketOpen: s.IsMarketOpen(now),
		LastResult: s.lastResult,
		Timezone:   s.hours.Location.String(),
		Schedule: fmt.Sprintf("mon-fri at minute %d, hours %d-%d",
			s.hours.CaptureMinute, s.hours.OpenHour, s.hours.CloseHour),
	}
	if s.enabled {
		next := s.NextRun(now)
		status.NextRun = &next
	}
	if !s.lastRun.IsZero() {
		last := s.lastRun
		status.LastRun = &last
	}
	return status
}
