/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/services
 */

package api

import (
	"github.com/dexstats-project/backend/internal/api/handlers"
	"github.com/dexstats-project/backend/internal/coins"
	"github.com/dexstats-project/backend/internal/config"
	"github.com/dexstats-project/backend/internal/dexapi"
	"github.com/dexstats-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, coinsCache *coins.Cache, cfg *config.Config) {
	// 1. Initialize Services
	statsService := services.NewStatsService(db)
	orderbookService := services.NewOrderbookService(dexapi.NewClient(cfg), coinsCache)

	// 2. Initialize Handlers
	statsHandler := handlers.NewStatsHandler(rdb, statsService, orderbookService)

	// 3. Define Routes
	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Snapshot artifacts (published by the worker)
	v1.Get("/summary", statsHandler.GetSummary)
	v1.Get("/ticker", statsHandler.GetTicker)
	v1.Get("/atomicdexio", statsHandler.GetAtomicdexio)
	v1.Get("/atomicdexio_fortnight", statsHandler.GetFortnight)
	v1.Get("/fiat_rates", statsHandler.GetFiatRates)
	v1.Get("/usd_volume_24h", statsHandler.GetUsdVolume)

	// Per-ticker filters over the published artifacts
	v1.Get("/summary_for_ticker/:ticker", statsHandler.GetSummaryForTicker)
	v1.Get("/ticker_for_ticker/:ticker", statsHandler.GetTickerForTicker)

	// Live queries
	v1.Get("/orderbook/:pair", statsHandler.GetOrderbook)
	v1.Get("/trades/:pair/:days", statsHandler.GetTrades)
	v1.Get("/swaps24/:ticker", statsHandler.GetSwaps24)
	v1.Get("/tickers_summary", statsHandler.GetTickersSummary)
	v1.Get("/volumes_ticker/:ticker/:days", statsHandler.GetVolumesForTicker)
}
