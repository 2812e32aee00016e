package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/patrickmn/go-cache"
	"github.com/username/portfoliotracker/src/config"
	"github.com/username/portfoliotracker/src/database"
	"github.com/username/portfoliotracker/src/handlers"
	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/processors"
	"github.com/username/portfoliotracker/src/services"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Portfolio tracker backend starting...")
	if !config.Cfg.AuthEnabled() {
		logger.L.Warn("JWT_SECRET not set, requests are attributed via user_id or DEFAULT_USER_ID", "defaultUserID", config.Cfg.DefaultUserID)
	}

	marketLocation, err := time.LoadLocation(config.Cfg.MarketTimezone)
	if err != nil {
		logger.L.Error("Invalid MARKET_TIMEZONE", "timezone", config.Cfg.MarketTimezone, "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations()

	reportCache := cache.New(config.Cfg.MovementCacheTTL, services.CacheCleanupInterval)
	portfolioService := services.NewPortfolioService(database.DB, reportCache, config.Cfg.MovementCacheTTL)

	fetcher := services.NewYahooQuoteFetcher(services.DefaultYahooEndpoints, config.Cfg.QuoteRequestsPerSecond)
	rates := processors.NewExchangeRateProcessor(config.Cfg.BaseCurrency, nil)

	ledgerService := services.NewLedgerService(database.DB, rates, portfolioService)
	priceService := services.NewPriceService(database.DB, fetcher, portfolioService)
	captureService := services.NewCaptureService(database.DB, fetcher, portfolioService, services.MarketHours{
		Location:      marketLocation,
		OpenHour:      config.Cfg.MarketOpenHour,
		CloseHour:     config.Cfg.MarketCloseHour,
		CaptureMinute: config.Cfg.CaptureMinute,
	}, config.Cfg.CaptureEnabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	captureService.Start(ctx)

	router := handlers.NewRouter(handlers.RouterConfig{
		Portfolio:      portfolioService,
		Ledger:         ledgerService,
		Prices:         priceService,
		Capture:        captureService,
		JWTSecret:      config.Cfg.JWTSecret,
		DefaultUserID:  config.Cfg.DefaultUserID,
		AllowedOrigins: config.Cfg.AllowedOrigins,
		Limiter:        rate.NewLimiter(rate.Every(100*time.Millisecond), 30),
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.L.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L.Error("Graceful shutdown failed", "error", err)
		}
	}()

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	if err := database.DB.Close(); err != nil {
		logger.L.Error("Failed to close database", "error", err)
	}
}
