/**
 * @description
 * Snapshot artifact publication. Every consumer-facing document
 * (summary, ticker, atomicdexio, fortnight, fiat rates, USD volume) is
 * recomputed on its own cadence and published to Redis as one atomic
 * SET of the full JSON payload. Keys carry no TTL: when a pass fails,
 * the previous good artifact stays served until a later pass succeeds.
 * Each artifact is single-flight: an overlapping refresh is skipped,
 * not queued.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 * - backend/internal/services (summary, stats)
 * - backend/internal/gecko, backend/internal/coins
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dexstats-project/backend/internal/coins"
	"github.com/dexstats-project/backend/internal/config"
	"github.com/dexstats-project/backend/internal/gecko"
	"github.com/dexstats-project/backend/internal/logger"
	"github.com/dexstats-project/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// Redis keys for the published artifacts. The API layer serves these
// payloads verbatim.
const (
	KeySummary   = "dexstats:summary"
	KeyTicker    = "dexstats:ticker"
	KeyAtomicdex = "dexstats:atomicdexio"
	KeyFortnight = "dexstats:atomicdexio_fortnight"
	KeyFiatRates = "dexstats:fiat_rates"
	KeyUsdVolume = "dexstats:usd_volume_24h"
)

const fortnightDays = 14

// ArtifactState tracks where an artifact is in its refresh cycle.
type ArtifactState string

const (
	StateStale     ArtifactState = "stale"
	StateComputing ArtifactState = "computing"
	StatePublished ArtifactState = "published"
)

// PriceFetcher is the price oracle surface the refresh loop needs.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, catalog *coins.Catalog) (*gecko.Snapshot, error)
}

// CatalogFetcher is the coin catalog surface the refresh loop needs.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) (*coins.Catalog, error)
}

type CacheService struct {
	redis      *redis.Client
	cfg        *config.Config
	summary    *SummaryService
	stats      *StatsService
	coinsCache *coins.Cache
	geckoCache *gecko.Cache
	prices     PriceFetcher
	catalogs   CatalogFetcher

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	states map[string]ArtifactState
}

func NewCacheService(
	redisClient *redis.Client,
	cfg *config.Config,
	summary *SummaryService,
	stats *StatsService,
	coinsCache *coins.Cache,
	geckoCache *gecko.Cache,
	prices PriceFetcher,
	catalogs CatalogFetcher,
) *CacheService {
	return &CacheService{
		redis:      redisClient,
		cfg:        cfg,
		summary:    summary,
		stats:      stats,
		coinsCache: coinsCache,
		geckoCache: geckoCache,
		prices:     prices,
		catalogs:   catalogs,
		locks:      make(map[string]*sync.Mutex),
		states:     make(map[string]ArtifactState),
	}
}

// State reports an artifact's current refresh state. Artifacts never
// refreshed are stale.
func (s *CacheService) State(name string) ArtifactState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[name]; ok {
		return state
	}
	return StateStale
}

func (s *CacheService) setState(name string, state ArtifactState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[name] = state
}

func (s *CacheService) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[name]; !ok {
		s.locks[name] = &sync.Mutex{}
	}
	return s.locks[name]
}

// runPass executes one refresh cycle for an artifact: compute under the
// pass timeout, then publish every produced key atomically. On any
// failure the previously published payloads and state are left intact.
func (s *CacheService) runPass(ctx context.Context, name string, compute func(ctx context.Context) (map[string]interface{}, error)) error {
	lock := s.lockFor(name)
	if !lock.TryLock() {
		logger.Info("Skipping %s refresh: previous pass still running", name)
		return nil
	}
	defer lock.Unlock()

	prev := s.State(name)
	s.setState(name, StateComputing)

	passCtx, cancel := context.WithTimeout(ctx, s.cfg.Refresh.PassTimeout)
	defer cancel()

	payloads, err := compute(passCtx)
	if err != nil {
		s.setState(name, prev)
		logger.Error("Refresh %s failed, keeping previous artifact: %v", name, err)
		return err
	}

	for key, payload := range payloads {
		data, err := json.Marshal(payload)
		if err != nil {
			s.setState(name, prev)
			logger.Error("Refresh %s failed to encode %s, keeping previous artifact: %v", name, key, err)
			return err
		}
		if err := s.redis.Set(passCtx, key, data, 0).Err(); err != nil {
			s.setState(name, prev)
			logger.Error("Refresh %s failed to publish %s, keeping previous artifact: %v", name, key, err)
			return err
		}
		logger.Info("✅ Published %s (%d bytes)", key, len(data))
	}

	s.setState(name, StatePublished)
	return nil
}

// RefreshSummary recomputes the 24h per-pair summaries and the DEX-wide
// USD volume derived from them. Both use the same oracle snapshot so the
// two artifacts never disagree on valuation.
func (s *CacheService) RefreshSummary(ctx context.Context) error {
	return s.runPass(ctx, "summary", func(ctx context.Context) (map[string]interface{}, error) {
		snap := s.geckoCache.Snapshot()
		summaries, err := s.summary.Summaries(ctx, 1, s.cfg.Refresh.PairsWindowDays, snap)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			KeySummary: summaries,
			KeyUsdVolume: models.UsdVolume{
				UsdVolume24h: roundUsd(DexUsdVolume(summaries)).InexactFloat64(),
			},
		}, nil
	})
}

// RefreshTicker recomputes the compact ticker list.
func (s *CacheService) RefreshTicker(ctx context.Context) error {
	return s.runPass(ctx, "ticker", func(ctx context.Context) (map[string]interface{}, error) {
		snap := s.geckoCache.Snapshot()
		pairs, err := s.stats.CanonicalPairs(ctx, s.cfg.Refresh.PairsWindowDays, snap)
		if err != nil {
			return nil, err
		}
		tickers := make([]models.PairTicker, 0, len(pairs))
		for _, pair := range pairs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ticker, err := s.summary.TickerForPair(ctx, pair, 1)
			if err != nil {
				logger.Error("Dropping pair %s from ticker: %v", pair, err)
				continue
			}
			tickers = append(tickers, ticker)
		}
		return map[string]interface{}{KeyTicker: tickers}, nil
	})
}

// RefreshAtomicdexio recomputes the DEX-wide counters artifact.
func (s *CacheService) RefreshAtomicdexio(ctx context.Context) error {
	return s.runPass(ctx, "atomicdexio", func(ctx context.Context) (map[string]interface{}, error) {
		info, err := s.summary.AtomicdexInfo(ctx, s.cfg.Refresh.PairsWindowDays, s.geckoCache.Snapshot())
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{KeyAtomicdex: info}, nil
	})
}

// RefreshFortnight recomputes the 14-day timespan artifact.
func (s *CacheService) RefreshFortnight(ctx context.Context) error {
	return s.runPass(ctx, "fortnight", func(ctx context.Context) (map[string]interface{}, error) {
		info, err := s.summary.TimespanInfo(ctx, fortnightDays, s.geckoCache.Snapshot())
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{KeyFortnight: info}, nil
	})
}

// RefreshFiatRates pulls a fresh oracle snapshot, installs it as the
// valuation source for subsequent passes, and publishes the raw rates.
// An empty snapshot is treated as a failed pass so a broken oracle
// cannot wipe the served rates or zero out valuations.
func (s *CacheService) RefreshFiatRates(ctx context.Context) error {
	return s.runPass(ctx, "fiat_rates", func(ctx context.Context) (map[string]interface{}, error) {
		catalog := s.coinsCache.Catalog()
		snap, err := s.prices.FetchPrices(ctx, catalog)
		if err != nil {
			return nil, err
		}
		if len(snap.Coins) == 0 {
			return nil, fmt.Errorf("price oracle returned an empty snapshot")
		}
		s.geckoCache.Set(snap)
		return map[string]interface{}{KeyFiatRates: snap.Coins}, nil
	})
}

// RefreshCoinsConfig reloads the coin catalog. Nothing is published;
// the catalog only feeds orderbook merging and oracle id resolution.
func (s *CacheService) RefreshCoinsConfig(ctx context.Context) error {
	catalog, err := s.catalogs.FetchCatalog(ctx)
	if err != nil {
		logger.Error("Coins config refresh failed, keeping previous catalog: %v", err)
		return err
	}
	s.coinsCache.Set(catalog)
	logger.Info("✅ Loaded coins config (%d coins)", len(catalog.Tickers()))
	return nil
}
