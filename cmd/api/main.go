/**
 * @description
 * Main entry point for the DexStats API.
 * Initializes the Fiber web server, loads configuration, and sets up routes.
 * The API is a thin read layer: snapshot endpoints serve what the worker
 * published to Redis, live endpoints query the stores directly.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - backend/internal/config: Config loader
 * - backend/internal/db: Database connections
 *
 * @notes
 * - Connects to Postgres and Redis on startup.
 * - Sets up basic middleware (CORS, Logger, Recover).
 */

package main

import (
	"context"
	"log"

	"github.com/dexstats-project/backend/internal/api"
	"github.com/dexstats-project/backend/internal/coins"
	"github.com/dexstats-project/backend/internal/config"
	"github.com/dexstats-project/backend/internal/db"
	applogger "github.com/dexstats-project/backend/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// 3. Coin catalog (needed by the live orderbook endpoint). Prime it
	// once, then reload on the same cadence as the worker so the variant
	// set does not go stale while the server runs.
	coinsCache := coins.NewCache()
	coinsClient := coins.NewClient(cfg)
	if err := coinsCache.Refresh(context.Background(), coinsClient); err != nil {
		applogger.Warning("Coins config unavailable at startup, orderbook merging degraded: %v", err)
	}
	go coins.KeepFresh(context.Background(), coinsCache, coinsClient, cfg.Refresh.CoinsInterval)

	// 4. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "DexStats API",
		StrictRouting: true,
		CaseSensitive: true,
	})

	// 5. Global Middleware
	app.Use(recover.New()) // Panic recovery
	app.Use(logger.New())  // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, OPTIONS",
	}))

	// 6. Routes
	api.SetupRoutes(app, pgDB, redisClient, coinsCache, cfg)

	// 7. Start Server
	log.Printf("🚀 Starting DexStats API on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
