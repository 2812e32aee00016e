package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/models"
	"github.com/username/portfoliotracker/src/security/validation"
	"github.com/username/portfoliotracker/src/services"
	"github.com/username/portfoliotracker/src/utils"
)

const (
	defaultPriceHistoryDays = 30
	maxPriceHistoryDays     = 3650
)

type PriceHandler struct {
	priceService   services.PriceService
	captureService services.CaptureService
	now            func() time.Time
}

func NewPriceHandler(priceService services.PriceService, captureService services.CaptureService, now func() time.Time) *PriceHandler {
	if now == nil {
		now = time.Now
	}
	return &PriceHandler{priceService: priceService, captureService: captureService, now: now}
}

type fetchPriceRequest struct {
	Symbol string `json:"symbol"`
}

func (h *PriceHandler) HandleFetchPrice(w http.ResponseWriter, r *http.Request) {
	var req fetchPriceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	symbol := models.NormalizeSymbol(req.Symbol)
	if err := validation.ValidateSymbol(symbol, "symbol"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	quote, err := h.priceService.FetchAndRecord(r.Context(), symbol, h.now())
	if err != nil {
		sendServiceError(w, r, err, "fetching price")
		return
	}
	utils.SendJSON(w, models.FetchPriceResponse{
		Symbol: quote.Symbol,
		Price:  utils.RoundFloat(quote.Price.InexactFloat64(), 4),
		Name:   quote.DisplayName,
	}, http.StatusOK)
}

func (h *PriceHandler) HandleGetPriceHistory(w http.ResponseWriter, r *http.Request) {
	symbol := models.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if err := validation.ValidateSymbol(symbol, "symbol"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	days := defaultPriceHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.SendJSONError(w, "days must be an integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}
	if err := validation.ValidateIntRange(days, 1, maxPriceHistoryDays, "days"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	observations, err := h.priceService.PriceHistory(r.Context(), symbol, days)
	if err != nil {
		sendServiceError(w, r, err, "retrieving price history")
		return
	}
	history := make([]models.PricePoint, 0, len(observations))
	for _, obs := range observations {
		history = append(history, models.PricePoint{Date: obs.Date, Price: obs.Price.InexactFloat64(), Source: obs.Source})
	}
	utils.SendJSON(w, models.PriceHistoryResponse{Symbol: symbol, History: history}, http.StatusOK)
}

// HandleCapturePrices runs a capture immediately, whether or not the market is open.
func (h *PriceHandler) HandleCapturePrices(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	logger.FromContext(r.Context()).Info("Manual price capture requested", "marketOpen", h.captureService.IsMarketOpen(now))

	result, err := h.captureService.CapturePrices(r.Context(), now)
	if err != nil {
		sendServiceError(w, r, err, "capturing prices")
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *PriceHandler) HandleGetSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, h.captureService.Status(h.now()), http.StatusOK)
}
