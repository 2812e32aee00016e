package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/portfoliotracker/src/services"
	"github.com/username/portfoliotracker/src/utils"
	"golang.org/x/time/rate"
)

// RouterConfig carries the services and settings behind the HTTP API.
type RouterConfig struct {
	Portfolio services.PortfolioService
	Ledger    services.LedgerService
	Prices    services.PriceService
	Capture   services.CaptureService

	JWTSecret      string
	DefaultUserID  string
	AllowedOrigins []string
	// Limiter bounds the request rate across all clients. Nil disables limiting.
	Limiter *rate.Limiter
	// Now is the clock used for "now"; nil means time.Now.
	Now func() time.Time
}

// NewRouter wires every API route.
func NewRouter(cfg RouterConfig) http.Handler {
	portfolioHandler := NewPortfolioHandler(cfg.Portfolio, cfg.Now)
	holdingsHandler := NewHoldingsHandler(cfg.Ledger)
	priceHandler := NewPriceHandler(cfg.Prices, cfg.Capture, cfg.Now)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	if cfg.Limiter != nil {
		r.Use(RateLimitMiddleware(cfg.Limiter))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"message": "Portfolio tracker backend is running"}, http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(UserMiddleware(cfg.JWTSecret, cfg.DefaultUserID))

		r.Get("/portfolio", portfolioHandler.HandleGetPortfolio)
		r.Get("/portfolio/movement", portfolioHandler.HandleGetMovement)
		r.Get("/portfolio/history", portfolioHandler.HandleGetHistory)
		r.Get("/portfolio/by-account-type", portfolioHandler.HandleGetByAccountType)

		r.Get("/holdings", portfolioHandler.HandleGetHoldings)
		r.Post("/holdings", holdingsHandler.HandleCreateHolding)
		r.Put("/holdings/{groupID}", holdingsHandler.HandleUpdateHolding)
		r.Delete("/holdings/{groupID}", holdingsHandler.HandleDeleteHolding)
		r.Get("/holdings/{groupID}/history", holdingsHandler.HandleGetHoldingHistory)

		r.Post("/fetch-price", priceHandler.HandleFetchPrice)
		r.Get("/price-history/{symbol}", priceHandler.HandleGetPriceHistory)
		r.Post("/capture-prices", priceHandler.HandleCapturePrices)
		r.Get("/scheduler-status", priceHandler.HandleGetSchedulerStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSONError(w, "Not found", http.StatusNotFound)
	})
	return r
}
