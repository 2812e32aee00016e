package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/model"
	"github.com/username/portfoliotracker/src/models"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// YahooEndpoints are the URLs the quote fetcher talks to.
type YahooEndpoints struct {
	SessionURLs []string // visited first to collect cookies
	CrumbURL    string
	ChartURL    string // the symbol is appended as a path segment
}

// DefaultYahooEndpoints are the public Yahoo Finance endpoints.
var DefaultYahooEndpoints = YahooEndpoints{
	SessionURLs: []string{"https://fc.yahoo.com", "https://finance.yahoo.com"},
	CrumbURL:    "https://query1.finance.yahoo.com/v1/test/getcrumb",
	ChartURL:    "https://query1.finance.yahoo.com/v8/finance/chart",
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				PreviousClose      float64 `json:"previousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

type yahooQuoteFetcher struct {
	httpClient    http.Client
	endpoints     YahooEndpoints
	limiter       *rate.Limiter
	isInitialized bool
	crumb         string
	mu            sync.Mutex
}

// NewYahooQuoteFetcher creates a quote fetcher limited to requestsPerSecond outbound chart requests.
func NewYahooQuoteFetcher(endpoints YahooEndpoints, requestsPerSecond float64) QuoteFetcher {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 4
	}
	return &yahooQuoteFetcher{
		httpClient: http.Client{Jar: jar, Timeout: 20 * time.Second},
		endpoints:  endpoints,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (f *yahooQuoteFetcher) initializeSession(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.isInitialized && f.crumb != "" {
		return
	}

	logger.FromContext(ctx).Info("Initializing Yahoo Finance session and fetching crumb")
	for _, u := range f.endpoints.SessionURLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", yahooUserAgent)
		if resp, err := f.httpClient.Do(req); err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoints.CrumbURL, nil)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to build crumb request", "error", err)
		return
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	resp, err := f.httpClient.Do(req)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to fetch crumb", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.FromContext(ctx).Warn("Failed to fetch crumb", "status", resp.Status)
		return
	}
	body, _ := io.ReadAll(resp.Body)
	f.crumb = strings.TrimSpace(string(body))
	f.isInitialized = f.crumb != ""
	logger.FromContext(ctx).Info("Yahoo session initialized", "hasCrumb", f.isInitialized)
}

func (f *yahooQuoteFetcher) ensureSession(ctx context.Context) {
	f.mu.Lock()
	needsInit := !f.isInitialized || f.crumb == ""
	f.mu.Unlock()

	if needsInit {
		f.initializeSession(ctx)
	}
}

func (f *yahooQuoteFetcher) resetSession() {
	f.mu.Lock()
	f.isInitialized = false
	f.crumb = ""
	f.mu.Unlock()
}

// FetchPrice returns the latest price and display name of symbol. An expired
// crumb is refreshed once. Failures wrap ErrQuoteUnavailable; a zero price is a failure.
func (f *yahooQuoteFetcher) FetchPrice(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return models.Quote{}, fmt.Errorf("%w: empty symbol", ErrQuoteUnavailable)
	}

	quote, unauthorized, err := f.fetchChart(ctx, symbol)
	if unauthorized {
		f.resetSession()
		quote, _, err = f.fetchChart(ctx, symbol)
	}
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %s: %v", ErrQuoteUnavailable, symbol, err)
	}
	return quote, nil
}

func (f *yahooQuoteFetcher) fetchChart(ctx context.Context, symbol string) (quote models.Quote, unauthorized bool, err error) {
	f.ensureSession(ctx)
	if err := f.limiter.Wait(ctx); err != nil {
		return models.Quote{}, false, err
	}

	f.mu.Lock()
	crumb := f.crumb
	f.mu.Unlock()

	quoteURL := fmt.Sprintf("%s/%s?interval=1d&range=1d&crumb=%s", f.endpoints.ChartURL, url.PathEscape(symbol), url.QueryEscape(crumb))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteURL, nil)
	if err != nil {
		return models.Quote{}, false, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return models.Quote{}, false, fmt.Errorf("failed to call Yahoo chart API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return models.Quote{}, true, fmt.Errorf("status 401 (Unauthorized) - crumb invalid")
	}
	if resp.StatusCode != http.StatusOK {
		return models.Quote{}, false, fmt.Errorf("yahoo chart API returned non-OK status %d", resp.StatusCode)
	}

	var chartData yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartData); err != nil {
		return models.Quote{}, false, fmt.Errorf("failed to decode Yahoo chart response: %w", err)
	}
	if chartData.Chart.Error != nil {
		return models.Quote{}, false, fmt.Errorf("yahoo chart API returned an error: %v", chartData.Chart.Error)
	}
	if len(chartData.Chart.Result) == 0 {
		return models.Quote{}, false, fmt.Errorf("no price data found")
	}

	meta := chartData.Chart.Result[0].Meta
	price := meta.RegularMarketPrice
	for _, fallback := range []float64{meta.ChartPreviousClose, meta.PreviousClose} {
		if price > 0 {
			break
		}
		price = fallback
	}
	if price <= 0 {
		return models.Quote{}, false, fmt.Errorf("no price data found")
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}
	return models.Quote{
		Symbol:      symbol,
		Price:       decimal.NewFromFloat(price),
		DisplayName: name,
		Currency:    meta.Currency,
	}, false, nil
}

type priceServiceImpl struct {
	db          *sql.DB
	fetcher     QuoteFetcher
	invalidator CacheInvalidator
}

// NewPriceService creates the price observation service.
func NewPriceService(db *sql.DB, fetcher QuoteFetcher, invalidator CacheInvalidator) PriceService {
	return &priceServiceImpl{db: db, fetcher: fetcher, invalidator: invalidator}
}

func (s *priceServiceImpl) FetchAndRecord(ctx context.Context, symbol string, now time.Time) (models.Quote, error) {
	quote, err := s.fetcher.FetchPrice(ctx, symbol)
	if err != nil {
		logger.FromContext(ctx).Warn("Quote fetch failed", "symbol", symbol, "error", err)
		return models.Quote{}, err
	}
	obs := models.PriceObservation{
		Symbol:   quote.Symbol,
		Date:     models.DateKey(now),
		Price:    quote.Price,
		Currency: quote.Currency,
		Source:   "fetch",
	}
	if err := s.RecordPrice(ctx, obs); err != nil {
		return models.Quote{}, err
	}
	return quote, nil
}

// RecordPrice upserts an observation and drops every cached valuation.
func (s *priceServiceImpl) RecordPrice(ctx context.Context, obs models.PriceObservation) error {
	if !obs.Price.IsPositive() {
		return fmt.Errorf("refusing to record non-positive price %s for %s", obs.Price, obs.Symbol)
	}
	if err := model.InsertOrUpdatePrice(ctx, s.db, obs); err != nil {
		return err
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}
	return nil
}

func (s *priceServiceImpl) PriceHistory(ctx context.Context, symbol string, days int) ([]models.PriceObservation, error) {
	return model.GetPriceHistory(ctx, s.db, symbol, days)
}
