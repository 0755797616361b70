/**
 * @description
 * Orderbook merger: builds the combined live book for a canonical pair
 * across every related coin-ticker variant. The cross product of variant
 * sub-pairs is queried one by one; a failing or malformed leg contributes
 * nothing and never aborts the merge.
 *
 * @dependencies
 * - backend/internal/coins
 * - backend/internal/dexapi
 * - github.com/shopspring/decimal
 */

package services

import (
	"context"
	"time"

	"github.com/dexstats-project/backend/internal/coins"
	"github.com/dexstats-project/backend/internal/dexapi"
	"github.com/dexstats-project/backend/internal/logger"
	"github.com/dexstats-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

// BookSource provides live sub-pair books. Satisfied by *dexapi.Client.
type BookSource interface {
	Orderbook(ctx context.Context, base, rel string) (*dexapi.OrderbookResponse, error)
}

type OrderbookService struct {
	Source BookSource
	Coins  *coins.Cache
}

func NewOrderbookService(source BookSource, coinsCache *coins.Cache) *OrderbookService {
	return &OrderbookService{Source: source, Coins: coinsCache}
}

// Merged builds the combined book for a pair. Sub-pairs are skipped when
// they are self-pairs, when both legs are UTXO segwit variants (the
// engine already returns segwit and non-segwit orders together for UTXO
// coins, so both legs would double-count the same liquidity), or when a
// leg is a wallet-only coin. Output is rounded to a fixed 13 places.
func (s *OrderbookService) Merged(ctx context.Context, pair models.CanonicalPair) (models.CanonicalOrderbook, error) {
	catalog := s.Coins.Catalog()
	merged := models.CanonicalOrderbook{
		Pair:      pair.String(),
		Timestamp: time.Now().Unix(),
		Bids:      []models.OrderbookLevel{},
		Asks:      []models.OrderbookLevel{},
	}

	baseVariants := relatedOrSelf(catalog, pair.Base)
	quoteVariants := relatedOrSelf(catalog, pair.Quote)

	for _, base := range baseVariants {
		for _, quote := range quoteVariants {
			if base == quote {
				continue
			}
			if coins.IsSegwit(base) && coins.IsSegwit(quote) {
				continue
			}
			if catalog.IsWalletOnly(base) || catalog.IsWalletOnly(quote) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return merged, err
			}

			book, err := s.Source.Orderbook(ctx, base, quote)
			if err != nil {
				logger.Warning("Orderbook query for %s/%s failed: %v", base, quote, err)
				continue
			}
			if book.Error != "" {
				logger.Warning("Orderbook query for %s/%s rejected: %s", base, quote, book.Error)
				continue
			}
			appendBook(&merged, base, quote, book)
		}
	}

	return merged.Rounded(), nil
}

// relatedOrSelf falls back to the bare ticker when the catalog has not
// loaded yet, so a live request can still query the canonical sub-pair.
func relatedOrSelf(catalog *coins.Catalog, ticker string) []string {
	related := catalog.RelatedTickers(ticker)
	if len(related) == 0 {
		return []string{ticker}
	}
	return related
}

func appendBook(merged *models.CanonicalOrderbook, base, quote string, book *dexapi.OrderbookResponse) {
	for _, raw := range book.Bids {
		level, ok := parseLevel(raw)
		if !ok {
			logger.Warning("Malformed bid level in %s/%s book, skipped", base, quote)
			continue
		}
		merged.Bids = append(merged.Bids, level)
	}
	for _, raw := range book.Asks {
		level, ok := parseLevel(raw)
		if !ok {
			logger.Warning("Malformed ask level in %s/%s book, skipped", base, quote)
			continue
		}
		merged.Asks = append(merged.Asks, level)
	}
	// The engine's pre-aggregated totals are summed as-is rather than
	// recomputed from levels, to stay consistent with what a single
	// live query would report.
	merged.TotalAsksBaseVol = merged.TotalAsksBaseVol.Add(parseTotal(book.TotalAsksBaseVol))
	merged.TotalBidsRelVol = merged.TotalBidsRelVol.Add(parseTotal(book.TotalBidsRelVol))
}

func parseLevel(raw dexapi.RawLevel) (models.OrderbookLevel, bool) {
	price, err := decimal.NewFromString(raw.Price)
	if err != nil {
		return models.OrderbookLevel{}, false
	}
	volume, err := decimal.NewFromString(raw.BaseMaxVolume)
	if err != nil {
		return models.OrderbookLevel{}, false
	}
	return models.OrderbookLevel{Price: price, BaseMaxVolume: volume}, true
}

func parseTotal(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return total
}

// FindLowestAsk scans a merged book for its best ask, formatted the way
// the summary artifact serves prices. Empty book resolves to zero.
func FindLowestAsk(book models.CanonicalOrderbook) string {
	lowest := decimal.Zero
	for _, ask := range book.Asks {
		if lowest.IsZero() || ask.Price.LessThan(lowest) {
			lowest = ask.Price
		}
	}
	return models.Fixed10(lowest)
}

// FindHighestBid scans a merged book for its best bid. Empty book
// resolves to zero.
func FindHighestBid(book models.CanonicalOrderbook) string {
	highest := decimal.Zero
	for _, bid := range book.Bids {
		if bid.Price.GreaterThan(highest) {
			highest = bid.Price
		}
	}
	return models.Fixed10(highest)
}
