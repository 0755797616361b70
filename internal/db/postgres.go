/**
 * @description
 * PostgreSQL connection manager using GORM.
 * Opens the destination stores (row + time-bucketed) and the read-only
 * source ledger as separate handles with their own pools.
 *
 * @dependencies
 * - gorm.io/gorm: ORM library
 * - gorm.io/driver/postgres: Postgres driver
 */

package db

import (
	"time"

	"github.com/dexstats-project/backend/internal/config"
	"github.com/dexstats-project/backend/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ConnectPostgres initializes the destination PostgreSQL connection
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := open(cfg, cfg.DB.URL)
	if err != nil {
		return nil, err
	}
	logger.Info("✅ Connected to PostgreSQL (destination)")
	return db, nil
}

// ConnectSourceLedger initializes the read-only source ledger connection.
// Only the ingestion mirror reads from this handle.
func ConnectSourceLedger(cfg *config.Config) (*gorm.DB, error) {
	db, err := open(cfg, cfg.Source.URL)
	if err != nil {
		return nil, err
	}
	logger.Info("✅ Connected to PostgreSQL (source ledger)")
	return db, nil
}

func open(cfg *config.Config, dsn string) (*gorm.DB, error) {
	// Configure GORM logger based on environment
	gormLogLevel := gormLogger.Error
	if cfg.Server.Env == "development" {
		gormLogLevel = gormLogger.Info
	} else if cfg.Server.Env == "staging" {
		gormLogLevel = gormLogger.Warn
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // disable prepared statements to avoid stmtcache collisions
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, err
	}

	// Get generic database object to set connection pool params
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Conservative pool settings for managed Postgres
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
