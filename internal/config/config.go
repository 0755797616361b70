/**
 * @description
 * Configuration loader for the DexStats Backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if critical variables (Database URLs) are missing.
 * - Refresh intervals are expressed in seconds in the environment and
 *   exposed as time.Duration.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Source  SourceConfig
	Redis   RedisConfig
	DexAPI  DexAPIConfig
	Gecko   GeckoConfig
	Coins   CoinsConfig
	Refresh RefreshConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds destination PostgreSQL settings (row + time-bucketed stores)
type DBConfig struct {
	URL string
}

// SourceConfig holds the read-only source ledger settings
type SourceConfig struct {
	URL string
}

// RedisConfig holds Redis settings (snapshot artifact cache)
type RedisConfig struct {
	URL string
}

// DexAPIConfig holds the order-matching RPC endpoint
type DexAPIConfig struct {
	URL string
}

// GeckoConfig holds the price oracle settings
type GeckoConfig struct {
	BaseURL   string
	BatchSize int // external feed caps ids per call
}

// CoinsConfig holds the coin catalog source
type CoinsConfig struct {
	ConfigURL string
}

// RefreshConfig holds the cadence of every background task
type RefreshConfig struct {
	MirrorInterval     time.Duration
	MirrorLookbackDays int
	CoinsInterval      time.Duration
	GeckoInterval      time.Duration
	SummaryInterval    time.Duration
	TickerInterval     time.Duration
	AtomicdexInterval  time.Duration
	FortnightInterval  time.Duration
	PairsWindowDays    int
	PassTimeout        time.Duration
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Source: SourceConfig{
			URL: getEnv("SOURCE_DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		DexAPI: DexAPIConfig{
			URL: getEnv("DEX_RPC_URL", "http://127.0.0.1:7783"),
		},
		Gecko: GeckoConfig{
			BaseURL:   getEnv("GECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
			BatchSize: getEnvAsInt("GECKO_BATCH_SIZE", 200),
		},
		Coins: CoinsConfig{
			ConfigURL: getEnv("COINS_CONFIG_URL", "https://raw.githubusercontent.com/KomodoPlatform/coins/master/utils/coins_config.json"),
		},
		Refresh: RefreshConfig{
			MirrorInterval:     getEnvAsSeconds("MIRROR_INTERVAL_SEC", 60),
			MirrorLookbackDays: getEnvAsInt("MIRROR_LOOKBACK_DAYS", 1),
			CoinsInterval:      getEnvAsSeconds("COINS_INTERVAL_SEC", 600),
			GeckoInterval:      getEnvAsSeconds("GECKO_INTERVAL_SEC", 300),
			SummaryInterval:    getEnvAsSeconds("SUMMARY_INTERVAL_SEC", 30),
			TickerInterval:     getEnvAsSeconds("TICKER_INTERVAL_SEC", 60),
			AtomicdexInterval:  getEnvAsSeconds("ATOMICDEX_INTERVAL_SEC", 60),
			FortnightInterval:  getEnvAsSeconds("FORTNIGHT_INTERVAL_SEC", 600),
			PairsWindowDays:    getEnvAsInt("PAIRS_WINDOW_DAYS", 7),
			PassTimeout:        getEnvAsSeconds("PASS_TIMEOUT_SEC", 120),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Source.URL == "" && cfg.Server.Env != "test" {
		// Warning: the worker cannot mirror without it; the API can still serve snapshots.
		fmt.Println("Warning: SOURCE_DATABASE_URL is missing. The ingestion mirror will be disabled.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as a duration expressed in whole seconds
func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
