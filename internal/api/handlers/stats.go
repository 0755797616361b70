/**
 * @description
 * Statistics API Handlers.
 * Snapshot endpoints serve the published Redis artifacts verbatim (the
 * worker owns their freshness); the orderbook and trades endpoints are
 * computed live per request.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - github.com/redis/go-redis/v9
 * - backend/internal/services
 */

package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dexstats-project/backend/internal/models"
	"github.com/dexstats-project/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type StatsHandler struct {
	Redis *redis.Client
	Stats *services.StatsService
	Books *services.OrderbookService
}

func NewStatsHandler(rdb *redis.Client, stats *services.StatsService, books *services.OrderbookService) *StatsHandler {
	return &StatsHandler{Redis: rdb, Stats: stats, Books: books}
}

// serveArtifact returns a published snapshot payload as-is. A missing
// key means the worker has not published yet (or Redis was wiped), which
// is a service-unavailable condition rather than an empty result.
func (h *StatsHandler) serveArtifact(c *fiber.Ctx, key string) error {
	payload, err := h.Redis.Get(c.Context(), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Statistics not published yet, try again shortly",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read statistics cache",
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

// GetSummary returns the per-pair 24h summaries
// GET /api/v1/summary
func (h *StatsHandler) GetSummary(c *fiber.Ctx) error {
	return h.serveArtifact(c, services.KeySummary)
}

// GetTicker returns the compact per-pair tickers
// GET /api/v1/ticker
func (h *StatsHandler) GetTicker(c *fiber.Ctx) error {
	return h.serveArtifact(c, services.KeyTicker)
}

// GetAtomicdexio returns the DEX-wide swap counters
// GET /api/v1/atomicdexio
func (h *StatsHandler) GetAtomicdexio(c *fiber.Ctx) error {
	return h.serveArtifact(c, services.KeyAtomicdex)
}

// GetFortnight returns the 14-day rollup
// GET /api/v1/atomicdexio_fortnight
func (h *StatsHandler) GetFortnight(c *fiber.Ctx) error {
	return h.serveArtifact(c, services.KeyFortnight)
}

// GetFiatRates returns the last good oracle snapshot
// GET /api/v1/fiat_rates
func (h *StatsHandler) GetFiatRates(c *fiber.Ctx) error {
	return h.serveArtifact(c, services.KeyFiatRates)
}

// GetUsdVolume returns the DEX-wide 24h USD volume
// GET /api/v1/usd_volume_24h
func (h *StatsHandler) GetUsdVolume(c *fiber.Ctx) error {
	return h.serveArtifact(c, services.KeyUsdVolume)
}

// GetSummaryForTicker returns the published summaries filtered down to
// pairs trading the ticker
// GET /api/v1/summary_for_ticker/:ticker
func (h *StatsHandler) GetSummaryForTicker(c *fiber.Ctx) error {
	return h.serveFilteredArtifact(c, services.KeySummary, c.Params("ticker"), filterSummariesPayload)
}

// GetTickerForTicker returns the published ticker entries filtered down
// to pairs trading the ticker
// GET /api/v1/ticker_for_ticker/:ticker
func (h *StatsHandler) GetTickerForTicker(c *fiber.Ctx) error {
	return h.serveFilteredArtifact(c, services.KeyTicker, c.Params("ticker"), filterTickersPayload)
}

// serveFilteredArtifact applies a per-ticker filter to a published
// artifact; missing-artifact handling matches serveArtifact.
func (h *StatsHandler) serveFilteredArtifact(c *fiber.Ctx, key, ticker string, filter func([]byte, string) ([]byte, error)) error {
	payload, err := h.Redis.Get(c.Context(), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Statistics not published yet, try again shortly",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read statistics cache",
		})
	}
	filtered, err := filter(payload, ticker)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read statistics cache",
		})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(filtered)
}

// filterSummariesPayload keeps the summary entries with the ticker on
// either side. The kept entries pass through byte-for-byte.
func filterSummariesPayload(payload []byte, ticker string) ([]byte, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, err
	}
	kept := make([]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		var sides struct {
			Base  string `json:"base_currency"`
			Quote string `json:"quote_currency"`
		}
		if err := json.Unmarshal(entry, &sides); err != nil {
			return nil, err
		}
		if sides.Base == ticker || sides.Quote == ticker {
			kept = append(kept, entry)
		}
	}
	return json.Marshal(kept)
}

// filterTickersPayload keeps the ticker entries whose BASE_QUOTE key has
// the ticker on either side.
func filterTickersPayload(payload []byte, ticker string) ([]byte, error) {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, err
	}
	kept := make([]map[string]json.RawMessage, 0, len(entries))
	for _, entry := range entries {
		for pairName := range entry {
			base, quote, _ := strings.Cut(pairName, "_")
			if base == ticker || quote == ticker {
				kept = append(kept, entry)
				break
			}
		}
	}
	return json.Marshal(kept)
}

// GetSwaps24 returns the ticker's 24h successful swap count
// GET /api/v1/swaps24/:ticker
func (h *StatsHandler) GetSwaps24(c *fiber.Ctx) error {
	count, err := h.Stats.SwapsCountForTicker(c.Context(), c.Params("ticker"), 1)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count swaps",
		})
	}
	return c.JSON(models.TickerSwaps{Swaps24h: count})
}

// GetTickersSummary returns every ticker's 24h volume and trade count
// GET /api/v1/tickers_summary
func (h *StatsHandler) GetTickersSummary(c *fiber.Ctx) error {
	summary, err := h.Stats.TickersSummary(c.Context(), 1)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to aggregate tickers",
		})
	}
	return c.JSON(summary)
}

// GetVolumesForTicker returns the ticker's per-day volume history
// GET /api/v1/volumes_ticker/:ticker/:days
func (h *StatsHandler) GetVolumesForTicker(c *fiber.Ctx) error {
	days, err := c.ParamsInt("days")
	if err != nil || days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid days, expected a positive integer",
		})
	}
	history, err := h.Stats.DailyVolumesForTicker(c.Context(), c.Params("ticker"), days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch volume history",
		})
	}
	return c.JSON(history)
}

// GetOrderbook returns the live merged book for a pair
// GET /api/v1/orderbook/:pair  (pair as BASE_QUOTE)
func (h *StatsHandler) GetOrderbook(c *fiber.Ctx) error {
	pair, err := models.NewPair(c.Params("pair"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid pair, expected BASE_QUOTE",
		})
	}
	book, err := h.Books.Merged(c.Context(), pair)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch orderbook",
		})
	}
	return c.JSON(book)
}

// GetTrades returns the recent trades for a pair inside a day window
// GET /api/v1/trades/:pair/:days
func (h *StatsHandler) GetTrades(c *fiber.Ctx) error {
	pair, err := models.NewPair(c.Params("pair"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid pair, expected BASE_QUOTE",
		})
	}
	days, err := c.ParamsInt("days")
	if err != nil || days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid days, expected a positive integer",
		})
	}
	trades, err := h.Stats.TradesForPair(c.Context(), pair, days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch trades",
		})
	}
	return c.JSON(trades)
}
