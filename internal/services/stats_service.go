/**
 * @description
 * Swap statistics: pair canonicalization and time-windowed volume/price
 * aggregation. Swaps are folded into canonical (base, quote) orientation
 * before any arithmetic, so base/quote volumes never depend on which side
 * of a trade happened to be maker. All math is exact decimal.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/shopspring/decimal
 * - backend/internal/models
 * - backend/internal/gecko
 */

package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dexstats-project/backend/internal/gecko"
	"github.com/dexstats-project/backend/internal/logger"
	"github.com/dexstats-project/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// CanonicalOrder orients two tickers deterministically: alphabetical
// first, then the lower-market-cap coin becomes base when the supplied
// oracle snapshot knows both caps. Identical inputs and snapshot always
// produce the identical pair, whichever order the tickers arrive in.
func CanonicalOrder(a, b string, snap *gecko.Snapshot) models.CanonicalPair {
	if a > b {
		a, b = b, a
	}
	capA, okA := snap.MarketCap(a)
	capB, okB := snap.MarketCap(b)
	if okA && okB && capB.LessThan(capA) {
		a, b = b, a
	}
	return models.CanonicalPair{Base: a, Quote: b}
}

// CanonicalPairs enumerates every pair with at least one successful swap
// in the window, canonically oriented against the given oracle snapshot.
// Output is sorted so identical inputs yield identical output.
func (s *StatsService) CanonicalPairs(ctx context.Context, days int, snap *gecko.Snapshot) ([]models.CanonicalPair, error) {
	since := daysAgo(days)
	var rows []struct {
		MakerCoin string
		TakerCoin string
	}
	err := s.DB.WithContext(ctx).
		Model(&models.SwapRecord{}).
		Distinct("maker_coin", "taker_coin").
		Where("started_at > ? AND is_success = ?", since, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate pairs: %w", err)
	}

	seen := map[string]bool{}
	var pairs []models.CanonicalPair
	for _, row := range rows {
		if row.MakerCoin == "" || row.TakerCoin == "" {
			continue
		}
		pair := CanonicalOrder(row.MakerCoin, row.TakerCoin, snap)
		if seen[pair.String()] {
			continue
		}
		seen[pair.String()] = true
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })
	logger.Info("%d distinct pairs traded in the last %d days", len(pairs), days)
	return pairs, nil
}

// SwapsForPair returns every successful swap where the pair appears in
// either orientation, folded into canonical orientation: reversed rows
// get their amounts swapped and are marked as sells.
func (s *StatsService) SwapsForPair(ctx context.Context, pair models.CanonicalPair, sinceEpoch int64) ([]models.PairSwap, error) {
	buys, err := s.querySwaps(ctx, pair.Base, pair.Quote, sinceEpoch)
	if err != nil {
		return nil, err
	}
	sells, err := s.querySwaps(ctx, pair.Quote, pair.Base, sinceEpoch)
	if err != nil {
		return nil, err
	}
	return FoldSwaps(buys, sells), nil
}

func (s *StatsService) querySwaps(ctx context.Context, makerCoin, takerCoin string, sinceEpoch int64) ([]models.SwapRecord, error) {
	var rows []models.SwapRecord
	err := s.DB.WithContext(ctx).
		Where("started_at > ? AND maker_coin = ? AND taker_coin = ? AND is_success = ?",
			sinceEpoch, makerCoin, takerCoin, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query swaps for %s/%s: %w", makerCoin, takerCoin, err)
	}
	return rows, nil
}

// FoldSwaps merges the two orientations of a pair's swaps into canonical
// orientation. Rows already canonical keep their amounts and fold as
// buys; reversed rows swap maker/taker amounts and fold as sells. The
// sum of all folded amounts equals the sum of all recorded amounts.
func FoldSwaps(buys, sells []models.SwapRecord) []models.PairSwap {
	folded := make([]models.PairSwap, 0, len(buys)+len(sells))
	for _, row := range buys {
		folded = append(folded, models.PairSwap{
			UUID:        row.UUID,
			MakerAmount: row.MakerAmount,
			TakerAmount: row.TakerAmount,
			StartedAt:   row.StartedAt,
			TradeType:   models.TradeTypeBuy,
		})
	}
	for _, row := range sells {
		folded = append(folded, models.PairSwap{
			UUID:        row.UUID,
			MakerAmount: row.TakerAmount,
			TakerAmount: row.MakerAmount,
			StartedAt:   row.StartedAt,
			TradeType:   models.TradeTypeSell,
		})
	}
	return folded
}

// ComputeVolumesAndPrices folds a pair's windowed swaps into the summary
// figures. With no swaps in the window, lastPriceFallback (the most
// recent historical trade price, zero with no history) becomes the last
// price and everything else stays zero.
//
// price_change_percent keeps the historical fixed-point convention
// (last - oldest) / 100; consumers depend on the literal scaling.
func ComputeVolumesAndPrices(swaps []models.PairSwap, days int, lastPriceFallback decimal.Decimal) models.VolumesAndPrices {
	vp := models.VolumesAndPrices{
		Suffix:     models.WindowSuffix(days),
		SwapsCount: len(swaps),
	}

	type pricePoint struct {
		startedAt int64
		price     decimal.Decimal
	}
	var points []pricePoint
	for _, swap := range swaps {
		vp.BaseVolume = vp.BaseVolume.Add(swap.MakerAmount)
		vp.QuoteVolume = vp.QuoteVolume.Add(swap.TakerAmount)
		price, ok := swap.Price()
		if !ok {
			logger.Warning("Swap %s has zero base amount, excluded from price series", swap.UUID)
			continue
		}
		points = append(points, pricePoint{startedAt: swap.StartedAt, price: price})
	}

	if len(points) == 0 {
		vp.LastPrice = lastPriceFallback
		return vp
	}

	newest, oldest := points[0], points[0]
	vp.HighestPrice = points[0].price
	vp.LowestPrice = points[0].price
	for _, p := range points[1:] {
		if p.price.GreaterThan(vp.HighestPrice) {
			vp.HighestPrice = p.price
		}
		if p.price.LessThan(vp.LowestPrice) {
			vp.LowestPrice = p.price
		}
		if p.startedAt >= newest.startedAt {
			newest = p
		}
		if p.startedAt < oldest.startedAt {
			oldest = p
		}
	}
	vp.LastPrice = newest.price
	vp.PriceChangePercent = newest.price.Sub(oldest.price).Div(decimal.NewFromInt(100))
	return vp
}

// VolumesAndPrices aggregates one pair over the window, resolving the
// zero-trade fallback from history when the window is empty.
func (s *StatsService) VolumesAndPrices(ctx context.Context, pair models.CanonicalPair, days int) (models.VolumesAndPrices, error) {
	swaps, err := s.SwapsForPair(ctx, pair, daysAgo(days))
	if err != nil {
		return models.VolumesAndPrices{}, err
	}
	fallback := decimal.Zero
	if len(swaps) == 0 {
		fallback = s.LastPriceForPair(ctx, pair)
	}
	return ComputeVolumesAndPrices(swaps, days, fallback), nil
}

// LastTrade is one orientation's newest historical trade, as queried.
// Found is false when the orientation has no usable history (no rows, or
// a malformed row with a zero amount).
type LastTrade struct {
	MakerAmount decimal.Decimal
	TakerAmount decimal.Decimal
	StartedAt   int64
	Found       bool
}

func (t LastTrade) price(invert bool) decimal.Decimal {
	if invert {
		return t.MakerAmount.Div(t.TakerAmount)
	}
	return t.TakerAmount.Div(t.MakerAmount)
}

// LastPriceForPair resolves the price of the most recent historical trade
// for the pair in either orientation. No history at all is the explicit
// "no market" state: zero.
func (s *StatsService) LastPriceForPair(ctx context.Context, pair models.CanonicalPair) decimal.Decimal {
	forward := s.newestTrade(ctx, pair.Base, pair.Quote)
	reverse := s.newestTrade(ctx, pair.Quote, pair.Base)
	return ResolveLastPrice(forward, reverse)
}

// ResolveLastPrice prices the newer of the two orientation candidates in
// canonical orientation: forward rows price as taker/maker, reversed rows
// invert to maker/taker. A start-time tie keeps the reversed row.
func ResolveLastPrice(forward, reverse LastTrade) decimal.Decimal {

	switch {
	case forward.Found && reverse.Found:
		if forward.StartedAt > reverse.StartedAt {
			return forward.price(false)
		}
		return reverse.price(true)
	case forward.Found:
		return forward.price(false)
	case reverse.Found:
		return reverse.price(true)
	}
	return decimal.Zero
}

func (s *StatsService) newestTrade(ctx context.Context, makerCoin, takerCoin string) LastTrade {
	var row models.SwapRecord
	result := s.DB.WithContext(ctx).
		Where("maker_coin = ? AND taker_coin = ? AND is_success = ?", makerCoin, takerCoin, true).
		Order("started_at DESC").
		Limit(1).
		Find(&row)
	if result.Error != nil {
		logger.Warning("Failed to query last trade for %s/%s: %v", makerCoin, takerCoin, result.Error)
		return LastTrade{}
	}
	if result.RowsAffected == 0 || row.MakerAmount.IsZero() || row.TakerAmount.IsZero() {
		return LastTrade{}
	}
	return LastTrade{
		MakerAmount: row.MakerAmount,
		TakerAmount: row.TakerAmount,
		StartedAt:   row.StartedAt,
		Found:       true,
	}
}

// TradesForPair lists the window's folded trades, newest last, for the
// trades endpoint.
func (s *StatsService) TradesForPair(ctx context.Context, pair models.CanonicalPair, days int) ([]models.TradeInfo, error) {
	swaps, err := s.SwapsForPair(ctx, pair, daysAgo(days))
	if err != nil {
		return nil, err
	}
	sort.Slice(swaps, func(i, j int) bool { return swaps[i].StartedAt < swaps[j].StartedAt })

	trades := make([]models.TradeInfo, 0, len(swaps))
	for _, swap := range swaps {
		price, ok := swap.Price()
		if !ok {
			continue
		}
		trades = append(trades, models.TradeInfo{
			TradeID:     swap.UUID,
			Price:       models.Fixed10(price),
			BaseVolume:  swap.MakerAmount,
			QuoteVolume: swap.TakerAmount,
			Timestamp:   swap.StartedAt,
			Type:        swap.TradeType,
		})
	}
	return trades, nil
}

// SwapCounts returns the DEX-wide success counters: all time, 24h, 30d.
func (s *StatsService) SwapCounts(ctx context.Context) (models.SwapCounts, error) {
	var counts models.SwapCounts
	err := s.DB.WithContext(ctx).
		Model(&models.SwapRecord{}).
		Where("is_success = ?", true).
		Count(&counts.SwapsAllTime).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count swaps: %w", err)
	}
	if counts.Swaps24h, err = s.TimespanSwapsCount(ctx, 1); err != nil {
		return counts, err
	}
	if counts.Swaps30d, err = s.TimespanSwapsCount(ctx, 30); err != nil {
		return counts, err
	}
	return counts, nil
}

// TimespanSwapsCount counts successful swaps in the last N days.
func (s *StatsService) TimespanSwapsCount(ctx context.Context, days int) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.SwapRecord{}).
		Where("started_at > ? AND is_success = ?", daysAgo(days), true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count swaps for %dd window: %w", days, err)
	}
	return count, nil
}

// SwapsCountForTicker counts the window's successful swaps with the
// ticker on either side.
func (s *StatsService) SwapsCountForTicker(ctx context.Context, ticker string, days int) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.SwapRecord{}).
		Where("started_at > ? AND is_success = ? AND (maker_coin = ? OR taker_coin = ?)",
			daysAgo(days), true, ticker, ticker).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count swaps for %s: %w", ticker, err)
	}
	return count, nil
}

// TickersSummary aggregates every ticker's trade count and coin volume
// over the window.
func (s *StatsService) TickersSummary(ctx context.Context, days int) (models.TickersSummary, error) {
	var rows []models.SwapRecord
	err := s.DB.WithContext(ctx).
		Where("started_at > ? AND is_success = ?", daysAgo(days), true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load swaps for tickers summary: %w", err)
	}
	return FoldTickerVolumes(rows), nil
}

// FoldTickerVolumes rolls swap rows into per-ticker totals. Each side of
// a swap accrues to its own coin, so one swap counts once per ticker.
func FoldTickerVolumes(rows []models.SwapRecord) models.TickersSummary {
	out := models.TickersSummary{}
	for _, row := range rows {
		maker := out[row.MakerCoin]
		maker.Volume24h = maker.Volume24h.Add(row.MakerAmount)
		maker.Trades24h++
		out[row.MakerCoin] = maker

		taker := out[row.TakerCoin]
		taker.Volume24h = taker.Volume24h.Add(row.TakerAmount)
		taker.Trades24h++
		out[row.TakerCoin] = taker
	}
	return out
}

// DailyVolumesForTicker buckets a ticker's traded coins per UTC day over
// the last N days, reading the time-bucketed store.
func (s *StatsService) DailyVolumesForTicker(ctx context.Context, ticker string, days int) (models.VolumeHistory, error) {
	var rows []models.TimelineSwap
	err := s.DB.WithContext(ctx).
		Where("epoch > ? AND (maker_coin = ? OR taker_coin = ?)", daysAgo(days), ticker, ticker).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load volume history for %s: %w", ticker, err)
	}
	return BucketDailyVolumes(rows, ticker, days, time.Now().UTC()), nil
}

// BucketDailyVolumes sums the ticker's side of each swap into UTC day
// buckets. Every day of the window is present, zero when nothing traded;
// rows outside the window are dropped.
func BucketDailyVolumes(rows []models.TimelineSwap, ticker string, days int, now time.Time) models.VolumeHistory {
	out := models.VolumeHistory{}
	for i := 0; i < days; i++ {
		out[now.AddDate(0, 0, -i).Format("2006-01-02")] = decimal.Zero
	}
	for _, row := range rows {
		day := row.StartedAt.UTC().Format("2006-01-02")
		volume, ok := out[day]
		if !ok {
			continue
		}
		switch ticker {
		case row.MakerCoin:
			out[day] = volume.Add(row.MakerAmount)
		case row.TakerCoin:
			out[day] = volume.Add(row.TakerAmount)
		}
	}
	return out
}
