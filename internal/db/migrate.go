/**
 * @description
 * Destination schema setup. The worker owns the destination tables, so
 * it migrates them on startup; the source ledger is never touched.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/models
 */

package db

import (
	"github.com/dexstats-project/backend/internal/logger"
	"github.com/dexstats-project/backend/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the destination tables.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.SwapRecord{},
		&models.FailedSwapRecord{},
		&models.TimelineSwap{},
		&models.TimelineFailedSwap{},
	); err != nil {
		return err
	}
	logger.Info("✅ Destination schema migrated")
	return nil
}
