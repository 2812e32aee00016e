package processors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/models"
)

// DefaultValetURL is the Bank of Canada valet observations endpoint.
const DefaultValetURL = "https://www.bankofcanada.ca/valet/observations"

// rateLookbackDays is how far back a missing rate (weekend, holiday) is carried from.
const rateLookbackDays = 7

// ExchangeRateProcessor resolves daily FX rates into a base currency from the
// Bank of Canada, which quotes every series against CAD. Rates into another
// base currency are crossed through CAD.
type ExchangeRateProcessor struct {
	baseCurrency string
	valetURL     string
	httpClient   *http.Client
	rateCache    *cache.Cache
}

// NewExchangeRateProcessor creates a processor converting into baseCurrency.
func NewExchangeRateProcessor(baseCurrency string, httpClient *http.Client) *ExchangeRateProcessor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ExchangeRateProcessor{
		baseCurrency: strings.ToUpper(baseCurrency),
		valetURL:     DefaultValetURL,
		httpClient:   httpClient,
		rateCache:    cache.New(24*time.Hour, 48*time.Hour),
	}
}

// WithValetURL points the processor at another valet endpoint.
func (p *ExchangeRateProcessor) WithValetURL(url string) *ExchangeRateProcessor {
	p.valetURL = strings.TrimRight(url, "/")
	return p
}

// BaseCurrency is the currency rates convert into.
func (p *ExchangeRateProcessor) BaseCurrency() string { return p.baseCurrency }

// GetExchangeRate returns how many units of the base currency one unit of
// currency was worth on date, carrying back up to a week when date has no rate.
func (p *ExchangeRateProcessor) GetExchangeRate(ctx context.Context, currency string, date time.Time) (decimal.Decimal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || currency == p.baseCurrency {
		return decimal.NewFromInt(1), nil
	}

	toCAD, err := p.cadRate(ctx, currency, date)
	if err != nil {
		return decimal.Zero, err
	}
	if p.baseCurrency == "CAD" {
		return toCAD, nil
	}
	baseToCAD, err := p.cadRate(ctx, p.baseCurrency, date)
	if err != nil {
		return decimal.Zero, err
	}
	return toCAD.Div(baseToCAD), nil
}

func (p *ExchangeRateProcessor) cadRate(ctx context.Context, currency string, date time.Time) (decimal.Decimal, error) {
	if currency == "CAD" {
		return decimal.NewFromInt(1), nil
	}

	dateStr := date.Format(models.DateLayout)
	cacheKey := fmt.Sprintf("rate-%s-%s", currency, dateStr)
	if rate, found := p.rateCache.Get(cacheKey); found {
		return rate.(decimal.Decimal), nil
	}

	series := fmt.Sprintf("FX%sCAD", currency)
	startStr := date.AddDate(0, 0, -(rateLookbackDays - 1)).Format(models.DateLayout)
	url := fmt.Sprintf("%s/%s/json?start_date=%s&end_date=%s", p.valetURL, series, startStr, dateStr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to make Bank of Canada request", "url", url, "error", err)
		return decimal.Zero, fmt.Errorf("fetch %s: %w", series, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.FromContext(ctx).Warn("Bank of Canada returned non-OK status", "status", resp.Status, "url", url)
		return decimal.Zero, fmt.Errorf("fetch %s: unexpected status %s", series, resp.Status)
	}

	var valet valetResponse
	if err := json.NewDecoder(resp.Body).Decode(&valet); err != nil {
		return decimal.Zero, fmt.Errorf("decode %s: %w", series, err)
	}

	// Observations are oldest first; the newest usable one is the carried-back rate.
	for i := len(valet.Observations) - 1; i >= 0; i-- {
		obs := valet.Observations[i]
		raw, ok := obs[series]
		if !ok || raw.Value == "" {
			continue
		}
		rate, err := decimal.NewFromString(raw.Value)
		if err != nil || !rate.IsPositive() {
			logger.FromContext(ctx).Warn("Skipping unparseable FX observation", "series", series, "value", raw.Value)
			continue
		}
		p.rateCache.Set(cacheKey, rate, cache.DefaultExpiration)
		return rate, nil
	}

	return decimal.Zero, fmt.Errorf("exchange rate not found for %s on or before %s", currency, dateStr)
}

type valetResponse struct {
	Observations []map[string]valetValue `json:"observations"`
}

// valetValue is one series value. The "d" date key decodes into a string and
// is skipped by the lookup.
type valetValue struct {
	Value string `json:"v"`
}

func (v *valetValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return nil
	}
	type plain valetValue
	return json.Unmarshal(data, (*plain)(v))
}
