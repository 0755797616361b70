/**
 * @description
 * Summary composition: joins windowed swap aggregation, the merged live
 * orderbook, and the USD valuation layer into the per-pair summary and
 * ticker documents, plus the DEX-wide rollups (atomicdexio, fortnight).
 * Market caps and USD prices are read from the one oracle snapshot a
 * pass captured; nothing here re-reads the live oracle cache.
 *
 * @dependencies
 * - backend/internal/services (stats, orderbook)
 * - backend/internal/gecko
 * - github.com/shopspring/decimal
 */

package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dexstats-project/backend/internal/gecko"
	"github.com/dexstats-project/backend/internal/logger"
	"github.com/dexstats-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

type SummaryService struct {
	Stats *StatsService
	Books *OrderbookService
}

func NewSummaryService(stats *StatsService, books *OrderbookService) *SummaryService {
	return &SummaryService{Stats: stats, Books: books}
}

// SummaryForPair computes the full summary document for one pair. When
// the caller already merged the pair's book it passes it in; otherwise
// the book is fetched here. A book failure degrades to empty depth, it
// does not fail the summary.
func (s *SummaryService) SummaryForPair(ctx context.Context, pair models.CanonicalPair, days int, snap *gecko.Snapshot, book *models.CanonicalOrderbook) (models.PairSummary, error) {
	vp, err := s.Stats.VolumesAndPrices(ctx, pair, days)
	if err != nil {
		return models.PairSummary{}, fmt.Errorf("summary for %s: %w", pair, err)
	}

	if book == nil {
		merged, err := s.Books.Merged(ctx, pair)
		if err != nil {
			return models.PairSummary{}, fmt.Errorf("summary for %s: %w", pair, err)
		}
		book = &merged
	}

	basePrice := snap.Price(pair.Base)
	quotePrice := snap.Price(pair.Quote)

	summary := models.PairSummary{
		TradingPair:        pair.String(),
		BaseCurrency:       pair.Base,
		QuoteCurrency:      pair.Quote,
		PairSwapsCount:     vp.SwapsCount,
		BasePriceUsd:       basePrice,
		RelPriceUsd:        quotePrice,
		BaseVolumeCoins:    vp.BaseVolume,
		RelVolumeCoins:     vp.QuoteVolume,
		BaseLiquidityCoins: book.TotalAsksBaseVol,
		RelLiquidityCoins:  book.TotalBidsRelVol,
		BaseLiquidityUsd:   roundUsd(basePrice.Mul(book.TotalAsksBaseVol)),
		RelLiquidityUsd:    roundUsd(quotePrice.Mul(book.TotalBidsRelVol)),
		BaseTradeValueUsd:  roundUsd(basePrice.Mul(vp.BaseVolume)),
		RelTradeValueUsd:   roundUsd(quotePrice.Mul(vp.QuoteVolume)),
		LowestAsk:          FindLowestAsk(*book),
		HighestBid:         FindHighestBid(*book),
		LastPrice:          models.Fixed10(vp.LastPrice),
		BaseVolume:         models.Fixed10(vp.BaseVolume),
		QuoteVolume:        models.Fixed10(vp.QuoteVolume),
		PriceChangePercent: models.Fixed10(vp.PriceChangePercent),
		HighestPrice:       models.Fixed10(vp.HighestPrice),
		LowestPrice:        models.Fixed10(vp.LowestPrice),
		Suffix:             vp.Suffix,
	}
	summary.PairLiquidityUsd = summary.BaseLiquidityUsd.Add(summary.RelLiquidityUsd)
	summary.PairTradeValueUsd = summary.BaseTradeValueUsd.Add(summary.RelTradeValueUsd)
	return summary, nil
}

// TickerForPair computes the compact ticker entry for one pair.
func (s *SummaryService) TickerForPair(ctx context.Context, pair models.CanonicalPair, days int) (models.PairTicker, error) {
	vp, err := s.Stats.VolumesAndPrices(ctx, pair, days)
	if err != nil {
		return nil, fmt.Errorf("ticker for %s: %w", pair, err)
	}
	return models.PairTicker{
		pair.String(): models.TickerEntry{
			LastPrice:   models.Fixed10(vp.LastPrice),
			QuoteVolume: models.Fixed10(vp.QuoteVolume),
			BaseVolume:  models.Fixed10(vp.BaseVolume),
			IsFrozen:    "0",
		},
	}, nil
}

// Summaries computes the summary for every pair that traded inside the
// (wider) pairs window, each over the given aggregation window. A single
// pair's failure is logged and the pair dropped, never failing the pass.
func (s *SummaryService) Summaries(ctx context.Context, days, pairsWindowDays int, snap *gecko.Snapshot) ([]models.PairSummary, error) {
	pairs, err := s.Stats.CanonicalPairs(ctx, pairsWindowDays, snap)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.PairSummary, 0, len(pairs))
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary, err := s.SummaryForPair(ctx, pair, days, snap, nil)
		if err != nil {
			logger.Error("Dropping pair %s from summary: %v", pair, err)
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// AtomicdexInfo builds the DEX-wide counters artifact: swap counts plus
// the current liquidity summed from every pair's merged book.
func (s *SummaryService) AtomicdexInfo(ctx context.Context, pairsWindowDays int, snap *gecko.Snapshot) (models.AtomicdexInfo, error) {
	counts, err := s.Stats.SwapCounts(ctx)
	if err != nil {
		return models.AtomicdexInfo{}, err
	}
	summaries, err := s.Summaries(ctx, 1, pairsWindowDays, snap)
	if err != nil {
		return models.AtomicdexInfo{}, err
	}
	return models.AtomicdexInfo{
		SwapCounts:       counts,
		CurrentLiquidity: roundUsd(TotalLiquidity(summaries)).InexactFloat64(),
	}, nil
}

// TimespanInfo builds the fortnight-style artifact for an arbitrary
// window (14 days by default).
func (s *SummaryService) TimespanInfo(ctx context.Context, days int, snap *gecko.Snapshot) (models.FortnightInfo, error) {
	swapsCount, err := s.Stats.TimespanSwapsCount(ctx, days)
	if err != nil {
		return models.FortnightInfo{}, err
	}
	summaries, err := s.Summaries(ctx, days, days, snap)
	if err != nil {
		return models.FortnightInfo{}, err
	}
	return models.FortnightInfo{
		Days:             days,
		SwapsCount:       swapsCount,
		SwapsValue:       roundUsd(TotalTradeValue(summaries)).InexactFloat64(),
		CurrentLiquidity: roundUsd(TotalLiquidity(summaries)).InexactFloat64(),
		TopPairs:         TopPairsFrom(summaries),
	}, nil
}

// TotalLiquidity sums pair liquidity across summaries.
func TotalLiquidity(summaries []models.PairSummary) decimal.Decimal {
	total := decimal.Zero
	for _, s := range summaries {
		total = total.Add(s.PairLiquidityUsd)
	}
	return total
}

// TotalTradeValue sums pair trade value across summaries.
func TotalTradeValue(summaries []models.PairSummary) decimal.Decimal {
	total := decimal.Zero
	for _, s := range summaries {
		total = total.Add(s.PairTradeValueUsd)
	}
	return total
}

// DexUsdVolume computes the DEX-wide 24h USD volume. Adding both sides
// of a pair would double-count one trade, so each pair contributes the
// more valuable of its two sides.
func DexUsdVolume(summaries []models.PairSummary) decimal.Decimal {
	total := decimal.Zero
	for _, s := range summaries {
		baseSide := s.BasePriceUsd.Mul(s.BaseVolumeCoins)
		quoteSide := s.RelPriceUsd.Mul(s.RelVolumeCoins)
		if baseSide.GreaterThan(quoteSide) {
			total = total.Add(baseSide)
		} else {
			total = total.Add(quoteSide)
		}
	}
	return total
}

// TopPairsFrom ranks the top three pairs by traded value, liquidity and
// swap count. Ties break on pair name so the artifact is reproducible.
func TopPairsFrom(summaries []models.PairSummary) models.TopPairs {
	byValue := sortedCopy(summaries, func(a, b models.PairSummary) bool {
		if !a.PairTradeValueUsd.Equal(b.PairTradeValueUsd) {
			return a.PairTradeValueUsd.GreaterThan(b.PairTradeValueUsd)
		}
		return a.TradingPair < b.TradingPair
	})
	byLiquidity := sortedCopy(summaries, func(a, b models.PairSummary) bool {
		if !a.PairLiquidityUsd.Equal(b.PairLiquidityUsd) {
			return a.PairLiquidityUsd.GreaterThan(b.PairLiquidityUsd)
		}
		return a.TradingPair < b.TradingPair
	})
	bySwaps := sortedCopy(summaries, func(a, b models.PairSummary) bool {
		if a.PairSwapsCount != b.PairSwapsCount {
			return a.PairSwapsCount > b.PairSwapsCount
		}
		return a.TradingPair < b.TradingPair
	})

	top := models.TopPairs{
		ByValueTradedUsd:      []map[string]float64{},
		ByCurrentLiquidityUsd: []map[string]float64{},
		BySwapsCount:          []map[string]int{},
	}
	for _, s := range topN(byValue, 3) {
		top.ByValueTradedUsd = append(top.ByValueTradedUsd,
			map[string]float64{s.TradingPair: s.PairTradeValueUsd.InexactFloat64()})
	}
	for _, s := range topN(byLiquidity, 3) {
		top.ByCurrentLiquidityUsd = append(top.ByCurrentLiquidityUsd,
			map[string]float64{s.TradingPair: s.PairLiquidityUsd.InexactFloat64()})
	}
	for _, s := range topN(bySwaps, 3) {
		top.BySwapsCount = append(top.BySwapsCount,
			map[string]int{s.TradingPair: s.PairSwapsCount})
	}
	return top
}

func sortedCopy(summaries []models.PairSummary, less func(a, b models.PairSummary) bool) []models.PairSummary {
	out := make([]models.PairSummary, len(summaries))
	copy(out, summaries)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func topN(summaries []models.PairSummary, n int) []models.PairSummary {
	if len(summaries) < n {
		return summaries
	}
	return summaries[:n]
}

// roundUsd rounds a USD figure to cents.
func roundUsd(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
