package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/model"
	"github.com/username/portfoliotracker/src/models"
	"github.com/username/portfoliotracker/src/processors"
)

// User ids never contain '|', so the part before it identifies the user.
const (
	ckMovement             = "res_movement_user_%s|range_%s_mode_%s_filters_%s"
	ckHistory              = "res_history_user_%s|days_%d_mode_%s"
	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

type portfolioServiceImpl struct {
	db          *sql.DB
	reportCache *cache.Cache
	cacheTTL    time.Duration

	// Bumped by every invalidation. A result computed under an older
	// generation is returned but never cached.
	genMu     sync.Mutex
	globalGen uint64
	userGen   map[string]uint64
}

type cacheGeneration struct {
	global, user uint64
}

// NewPortfolioService creates the valuation service. A non-positive ttl uses DefaultCacheExpiration.
func NewPortfolioService(db *sql.DB, reportCache *cache.Cache, ttl time.Duration) PortfolioService {
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	if reportCache == nil {
		reportCache = cache.New(ttl, CacheCleanupInterval)
	}
	return &portfolioServiceImpl{
		db:          db,
		reportCache: reportCache,
		cacheTTL:    ttl,
		userGen:     make(map[string]uint64),
	}
}

// Snapshot materializes a user's ledger and the prices of every symbol it references, up to now's date.
func (s *portfolioServiceImpl) Snapshot(ctx context.Context, userID string, now time.Time) (processors.Snapshot, error) {
	edits, err := model.GetHoldingEditsByUser(ctx, s.db, userID)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to load holding ledger", "userID", userID, "error", err)
		return processors.Snapshot{}, fmt.Errorf("load ledger: %w", err)
	}
	ledger := processors.NewLedger(edits)

	observations, err := model.GetPricesForSymbols(ctx, s.db, ledger.AllSymbols(), models.DateKey(now))
	if err != nil {
		logger.FromContext(ctx).Error("Failed to load price series", "userID", userID, "error", err)
		return processors.Snapshot{}, fmt.Errorf("load prices: %w", err)
	}
	return processors.Snapshot{Ledger: ledger, Prices: processors.NewPriceSeries(observations)}, nil
}

func (s *portfolioServiceImpl) CurrentPortfolio(ctx context.Context, userID string, filters models.Filters, now time.Time) (models.PortfolioResponse, error) {
	snap, err := s.Snapshot(ctx, userID, now)
	if err != nil {
		return models.PortfolioResponse{}, err
	}
	holdings, totals := snap.Live(now, filters)
	return models.NewPortfolioResponse(holdings, totals), nil
}

func (s *portfolioServiceImpl) ByAccountType(ctx context.Context, userID string, now time.Time) ([]models.AccountTypeSummary, error) {
	snap, err := s.Snapshot(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	_, totals := snap.Live(now, models.Filters{})
	return models.NewAccountTypeSummaries(totals), nil
}

func (s *portfolioServiceImpl) Movement(ctx context.Context, userID, rangeToken string, mode models.RebaseMode, filters models.Filters, now time.Time) (models.MovementResult, error) {
	r, err := processors.ParseRange(rangeToken)
	if err != nil {
		return models.MovementResult{}, err
	}

	cacheKey := fmt.Sprintf(ckMovement, userID, r, mode, filtersKey(filters))
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.FromContext(ctx).Debug("Movement cache hit", "key", cacheKey)
		return cached.(models.MovementResult), nil
	}

	gen := s.generation(userID)
	snap, err := s.Snapshot(ctx, userID, now)
	if err != nil {
		return models.MovementResult{}, err
	}
	earliest, _ := snap.Ledger.Earliest()
	window, err := processors.BuildWindow(r, now, earliest)
	if err != nil {
		return models.MovementResult{}, err
	}

	result, err := processors.ReconstructMovement(ctx, snap, window, filters, mode)
	if err != nil {
		logger.FromContext(ctx).Error("Movement reconstruction failed", "userID", userID, "range", r, "error", err)
		return models.MovementResult{}, err
	}
	s.storeIfCurrent(ctx, userID, gen, cacheKey, result)
	return result, nil
}

func (s *portfolioServiceImpl) History(ctx context.Context, userID string, days int, mode models.RebaseMode, now time.Time) (models.HistoryResult, error) {
	cacheKey := fmt.Sprintf(ckHistory, userID, days, mode)
	if cached, found := s.reportCache.Get(cacheKey); found {
		logger.FromContext(ctx).Debug("History cache hit", "key", cacheKey)
		return cached.(models.HistoryResult), nil
	}

	gen := s.generation(userID)
	snap, err := s.Snapshot(ctx, userID, now)
	if err != nil {
		return models.HistoryResult{}, err
	}
	result, err := processors.ReconstructHistory(ctx, snap, processors.DailyWindow(days, now), models.Filters{}, mode)
	if err != nil {
		logger.FromContext(ctx).Error("History reconstruction failed", "userID", userID, "days", days, "error", err)
		return models.HistoryResult{}, err
	}
	s.storeIfCurrent(ctx, userID, gen, cacheKey, result)
	return result, nil
}

func (s *portfolioServiceImpl) generation(userID string) cacheGeneration {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return cacheGeneration{global: s.globalGen, user: s.userGen[userID]}
}

// storeIfCurrent caches result unless an invalidation ran since gen was read.
func (s *portfolioServiceImpl) storeIfCurrent(ctx context.Context, userID string, gen cacheGeneration, key string, result interface{}) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if gen != (cacheGeneration{global: s.globalGen, user: s.userGen[userID]}) {
		logger.FromContext(ctx).Debug("Discarding result computed before invalidation", "key", key)
		return
	}
	s.reportCache.Set(key, result, s.cacheTTL)
}

// InvalidateUserCache drops every cached result of one user.
func (s *portfolioServiceImpl) InvalidateUserCache(userID string) {
	s.genMu.Lock()
	s.userGen[userID]++
	s.genMu.Unlock()

	prefixes := []string{
		strings.SplitAfter(fmt.Sprintf(ckMovement, userID, "", "", ""), "|")[0],
		strings.SplitAfter(fmt.Sprintf(ckHistory, userID, 0, ""), "|")[0],
	}
	for key := range s.reportCache.Items() {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				s.reportCache.Delete(key)
				break
			}
		}
	}
}

// InvalidateAll drops every cached result. Prices are shared by all users.
func (s *portfolioServiceImpl) InvalidateAll() {
	s.genMu.Lock()
	s.globalGen++
	s.genMu.Unlock()
	s.reportCache.Flush()
}

func filtersKey(f models.Filters) string {
	norm := func(vs []string) string {
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				out = append(out, v)
			}
		}
		sort.Strings(out)
		return strings.Join(out, ",")
	}
	return fmt.Sprintf("a=%s;c=%s;xa=%s;xc=%s",
		strings.ToLower(strings.TrimSpace(f.Account)),
		strings.ToLower(strings.TrimSpace(f.Category)),
		norm(f.ExcludeAccounts),
		norm(f.ExcludeCategories),
	)
}
