package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/models"
	"github.com/username/portfoliotracker/src/security/validation"
	"github.com/username/portfoliotracker/src/services"
	"github.com/username/portfoliotracker/src/utils"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 3650
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
	now              func() time.Time
}

func NewPortfolioHandler(portfolioService services.PortfolioService, now func() time.Time) *PortfolioHandler {
	if now == nil {
		now = time.Now
	}
	return &PortfolioHandler{portfolioService: portfolioService, now: now}
}

// parseFilters reads account, category, exclude_accounts and exclude_categories.
// Exclusions accept comma-separated values and repeated parameters.
func parseFilters(r *http.Request) models.Filters {
	q := r.URL.Query()
	return models.Filters{
		Account:           strings.TrimSpace(q.Get("account")),
		Category:          strings.TrimSpace(q.Get("category")),
		ExcludeAccounts:   splitList(q["exclude_accounts"]),
		ExcludeCategories: splitList(q["exclude_categories"]),
	}
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseMode(r *http.Request) (models.RebaseMode, error) {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode"))) {
	case "", "rebased":
		return models.RebaseRatio, nil
	case "raw":
		return models.RebaseNone, nil
	default:
		return 0, fmt.Errorf("%w: mode must be rebased or raw", validation.ErrValidationFailed)
	}
}

func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	filters := parseFilters(r)
	logger.FromContext(r.Context()).Info("Handling GetPortfolio", "account", filters.Account, "category", filters.Category)

	portfolio, err := h.portfolioService.CurrentPortfolio(r.Context(), userID, filters, h.now())
	if err != nil {
		sendServiceError(w, r, err, "retrieving portfolio")
		return
	}
	utils.SendJSON(w, portfolio, http.StatusOK)
}

func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	portfolio, err := h.portfolioService.CurrentPortfolio(r.Context(), userID, parseFilters(r), h.now())
	if err != nil {
		sendServiceError(w, r, err, "retrieving holdings")
		return
	}
	holdings := portfolio.Holdings
	if holdings == nil {
		holdings = []models.HoldingWithValue{}
	}
	utils.SendJSON(w, holdings, http.StatusOK)
}

func (h *PortfolioHandler) HandleGetMovement(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	mode, err := parseMode(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	rangeToken := r.URL.Query().Get("range")
	logger.FromContext(r.Context()).Info("Handling GetMovement", "range", rangeToken, "mode", mode.String())

	movement, err := h.portfolioService.Movement(r.Context(), userID, rangeToken, mode, parseFilters(r), h.now())
	if err != nil {
		sendServiceError(w, r, err, "computing movement")
		return
	}
	utils.SendJSON(w, models.NewMovementResponse(movement), http.StatusOK)
}

func (h *PortfolioHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	days := defaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.SendJSONError(w, "days must be an integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}
	if err := validation.ValidateIntRange(days, 1, maxHistoryDays, "days"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := parseMode(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	history, err := h.portfolioService.History(r.Context(), userID, days, mode, h.now())
	if err != nil {
		sendServiceError(w, r, err, "computing history")
		return
	}
	utils.SendJSON(w, models.NewHistoryResponse(history), http.StatusOK)
}

func (h *PortfolioHandler) HandleGetByAccountType(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	summaries, err := h.portfolioService.ByAccountType(r.Context(), userID, h.now())
	if err != nil {
		sendServiceError(w, r, err, "retrieving account type totals")
		return
	}
	if summaries == nil {
		summaries = []models.AccountTypeSummary{}
	}
	utils.SendJSON(w, summaries, http.StatusOK)
}
