/**
 * @description
 * Worker Service Entry Point.
 * Responsible for background tasks:
 * 1. Mirroring swap rows from the source ledger into the destination stores.
 * 2. Refreshing the coin catalog and the fiat price snapshot.
 * 3. Recomputing and publishing every snapshot artifact on its cadence.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/coins
 * - backend/internal/gecko
 * - backend/internal/dexapi
 * - backend/internal/services
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dexstats-project/backend/internal/coins"
	"github.com/dexstats-project/backend/internal/config"
	"github.com/dexstats-project/backend/internal/db"
	"github.com/dexstats-project/backend/internal/dexapi"
	"github.com/dexstats-project/backend/internal/gecko"
	"github.com/dexstats-project/backend/internal/logger"
	"github.com/dexstats-project/backend/internal/services"
)

func main() {
	logger.Info("🔥 Starting DexStats Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect Stores
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}
	if err := db.Migrate(pgDB); err != nil {
		logger.Fatal("Schema migration failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services
	coinsCache := coins.NewCache()
	geckoCache := gecko.NewCache()
	coinsClient := coins.NewClient(cfg)
	geckoClient := gecko.NewClient(cfg)

	statsService := services.NewStatsService(pgDB)
	orderbookService := services.NewOrderbookService(dexapi.NewClient(cfg), coinsCache)
	summaryService := services.NewSummaryService(statsService, orderbookService)
	cacheService := services.NewCacheService(redisClient, cfg, summaryService, statsService, coinsCache, geckoCache, geckoClient, coinsClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Prime the catalog and price snapshot before any artifact pass,
	// so the first summaries already carry USD figures.
	if err := cacheService.RefreshCoinsConfig(ctx); err != nil {
		logger.Warning("Starting without a coins config, will retry on the next cycle")
	}
	if err := cacheService.RefreshFiatRates(ctx); err != nil {
		logger.Warning("Starting without fiat rates, valuations are zero until the oracle recovers")
	}

	// 5. Ingestion Mirror (only when a source ledger is configured)
	if cfg.Source.URL != "" {
		sourceDB, err := db.ConnectSourceLedger(cfg)
		if err != nil {
			logger.Fatal("Source ledger connection failed: %v", err)
		}
		mirrorService := services.NewMirrorService(
			services.NewGormSourceLedger(sourceDB),
			services.NewGormSwapStore(pgDB),
		)
		go runLoop(ctx, "mirror", cfg.Refresh.MirrorInterval, func(ctx context.Context) error {
			_, err := mirrorService.Mirror(ctx, cfg.Refresh.MirrorLookbackDays)
			return err
		})
	} else {
		logger.Warning("SOURCE_DATABASE_URL not set, ingestion mirror disabled")
	}

	// 6. Refresh Loops
	go runLoop(ctx, "coins_config", cfg.Refresh.CoinsInterval, cacheService.RefreshCoinsConfig)
	go runLoop(ctx, "fiat_rates", cfg.Refresh.GeckoInterval, cacheService.RefreshFiatRates)
	go runLoop(ctx, "summary", cfg.Refresh.SummaryInterval, cacheService.RefreshSummary)
	go runLoop(ctx, "ticker", cfg.Refresh.TickerInterval, cacheService.RefreshTicker)
	go runLoop(ctx, "atomicdexio", cfg.Refresh.AtomicdexInterval, cacheService.RefreshAtomicdexio)
	go runLoop(ctx, "fortnight", cfg.Refresh.FortnightInterval, cacheService.RefreshFortnight)

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()

	time.Sleep(1 * time.Second) // Give in-flight passes time to observe cancellation
	logger.Info("Worker exited.")
}

// runLoop runs fn immediately and then on every tick until ctx is done.
// The refresh services log their own failures; a loop never dies on one.
func runLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_ = fn(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping %s loop", name)
			return
		case <-ticker.C:
			_ = fn(ctx)
		}
	}
}
