package services

import (
	"testing"
	"time"

	"github.com/dexstats-project/backend/internal/gecko"
	"github.com/dexstats-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

func snapWithCaps(caps map[string]int64) *gecko.Snapshot {
	snap := gecko.EmptySnapshot()
	for ticker, cap := range caps {
		snap.Coins[ticker] = gecko.CoinPrice{UsdMarketCap: decimal.NewFromInt(cap)}
	}
	return snap
}

func TestCanonicalOrderAlphabeticalWhenCapsUnknown(t *testing.T) {
	snap := gecko.EmptySnapshot()
	pair := CanonicalOrder("KMD", "DGB", snap)
	if pair.Base != "DGB" || pair.Quote != "KMD" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
	// input order must not matter
	if CanonicalOrder("DGB", "KMD", snap) != pair {
		t.Fatal("canonical order is not commutative")
	}
}

func TestCanonicalOrderLowerCapBecomesBase(t *testing.T) {
	snap := snapWithCaps(map[string]int64{"BTC": 1000000, "KMD": 100})
	pair := CanonicalOrder("BTC", "KMD", snap)
	if pair.Base != "KMD" || pair.Quote != "BTC" {
		t.Fatalf("lower cap should be base, got %+v", pair)
	}
	if CanonicalOrder("KMD", "BTC", snap) != pair {
		t.Fatal("canonical order is not commutative")
	}
}

func TestCanonicalOrderIgnoresSingleKnownCap(t *testing.T) {
	// only one cap known: alphabetical ordering stands
	snap := snapWithCaps(map[string]int64{"KMD": 100})
	pair := CanonicalOrder("BTC", "KMD", snap)
	if pair.Base != "BTC" || pair.Quote != "KMD" {
		t.Fatalf("unexpected pair: %+v", pair)
	}
}

func swapRow(uuid string, maker, taker float64, startedAt int64) models.SwapRecord {
	return models.SwapRecord{
		UUID:        uuid,
		MakerAmount: decimal.NewFromFloat(maker),
		TakerAmount: decimal.NewFromFloat(taker),
		StartedAt:   startedAt,
		IsSuccess:   true,
	}
}

func TestFoldSwapsSwapsReversedAmounts(t *testing.T) {
	buys := []models.SwapRecord{swapRow("b1", 1000, 50, 100)}
	sells := []models.SwapRecord{swapRow("s1", 60, 1200, 200)}

	folded := FoldSwaps(buys, sells)
	if len(folded) != 2 {
		t.Fatalf("expected 2 folded swaps, got %d", len(folded))
	}

	buy := folded[0]
	if buy.TradeType != models.TradeTypeBuy || !buy.MakerAmount.Equal(decimal.NewFromInt(1000)) || !buy.TakerAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected buy fold: %+v", buy)
	}

	sell := folded[1]
	if sell.TradeType != models.TradeTypeSell {
		t.Fatalf("reversed row should fold as sell: %+v", sell)
	}
	if !sell.MakerAmount.Equal(decimal.NewFromInt(1200)) || !sell.TakerAmount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("reversed row should swap amounts: %+v", sell)
	}

	// total folded volume equals total recorded volume
	totalBase := buy.MakerAmount.Add(sell.MakerAmount)
	if !totalBase.Equal(decimal.NewFromInt(2200)) {
		t.Fatalf("base volume not conserved: %s", totalBase)
	}
}

func TestComputeVolumesAndPrices(t *testing.T) {
	swaps := FoldSwaps(
		[]models.SwapRecord{
			swapRow("a", 1000, 40, 100), // price 0.04
			swapRow("b", 1000, 60, 300), // price 0.06, newest
		},
		[]models.SwapRecord{
			swapRow("c", 50, 1000, 200), // folds to 1000 base / 50 quote, price 0.05
		},
	)

	vp := ComputeVolumesAndPrices(swaps, 1, decimal.Zero)
	if vp.Suffix != "24h" {
		t.Fatalf("unexpected suffix: %s", vp.Suffix)
	}
	if vp.SwapsCount != 3 {
		t.Fatalf("unexpected swap count: %d", vp.SwapsCount)
	}
	if !vp.BaseVolume.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected base volume: %s", vp.BaseVolume)
	}
	if !vp.QuoteVolume.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected quote volume: %s", vp.QuoteVolume)
	}
	if !vp.HighestPrice.Equal(decimal.NewFromFloat(0.06)) {
		t.Fatalf("unexpected highest: %s", vp.HighestPrice)
	}
	if !vp.LowestPrice.Equal(decimal.NewFromFloat(0.04)) {
		t.Fatalf("unexpected lowest: %s", vp.LowestPrice)
	}
	if !vp.LastPrice.Equal(decimal.NewFromFloat(0.06)) {
		t.Fatalf("last price should come from the newest trade: %s", vp.LastPrice)
	}
	// historical fixed-point convention: (last - oldest) / 100
	want := decimal.NewFromFloat(0.06).Sub(decimal.NewFromFloat(0.04)).Div(decimal.NewFromInt(100))
	if !vp.PriceChangePercent.Equal(want) {
		t.Fatalf("unexpected price change: %s, want %s", vp.PriceChangePercent, want)
	}
}

func TestComputeVolumesAndPricesExcludesZeroBaseFromPrices(t *testing.T) {
	swaps := []models.PairSwap{
		{UUID: "ok", MakerAmount: decimal.NewFromInt(100), TakerAmount: decimal.NewFromInt(5), StartedAt: 100, TradeType: models.TradeTypeBuy},
		{UUID: "bad", MakerAmount: decimal.Zero, TakerAmount: decimal.NewFromInt(7), StartedAt: 200, TradeType: models.TradeTypeBuy},
	}
	vp := ComputeVolumesAndPrices(swaps, 1, decimal.Zero)

	// the malformed row still counts toward volumes and the swap count
	if vp.SwapsCount != 2 {
		t.Fatalf("unexpected swap count: %d", vp.SwapsCount)
	}
	if !vp.QuoteVolume.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("unexpected quote volume: %s", vp.QuoteVolume)
	}
	// but not toward the price series
	if !vp.LastPrice.Equal(decimal.NewFromFloat(0.05)) {
		t.Fatalf("unexpected last price: %s", vp.LastPrice)
	}
	if !vp.PriceChangePercent.IsZero() {
		t.Fatalf("single price point should not move: %s", vp.PriceChangePercent)
	}
}

func TestComputeVolumesAndPricesEmptyWindowUsesFallback(t *testing.T) {
	fallback := decimal.NewFromFloat(0.123)
	vp := ComputeVolumesAndPrices(nil, 14, fallback)
	if vp.Suffix != "14d" {
		t.Fatalf("unexpected suffix: %s", vp.Suffix)
	}
	if !vp.LastPrice.Equal(fallback) {
		t.Fatalf("empty window should surface the historical price: %s", vp.LastPrice)
	}
	if !vp.BaseVolume.IsZero() || !vp.HighestPrice.IsZero() || !vp.PriceChangePercent.IsZero() {
		t.Fatal("everything but last price should stay zero")
	}
}

func lastTrade(maker, taker int64, startedAt int64) LastTrade {
	return LastTrade{
		MakerAmount: decimal.NewFromInt(maker),
		TakerAmount: decimal.NewFromInt(taker),
		StartedAt:   startedAt,
		Found:       true,
	}
}

func TestResolveLastPriceInvertsReversedHistory(t *testing.T) {
	// only the reversed orientation traded: 5 quote sold for 100 base,
	// so the canonical price is 5/100, not 100/5
	price := ResolveLastPrice(LastTrade{}, lastTrade(5, 100, 500))
	if !price.Equal(decimal.NewFromFloat(0.05)) {
		t.Fatalf("reversed history should invert the ratio: %s", price)
	}
}

func TestResolveLastPriceForwardHistory(t *testing.T) {
	price := ResolveLastPrice(lastTrade(100, 4, 500), LastTrade{})
	if !price.Equal(decimal.NewFromFloat(0.04)) {
		t.Fatalf("unexpected forward price: %s", price)
	}
}

func TestResolveLastPricePicksNewerOrientation(t *testing.T) {
	forward := lastTrade(100, 4, 500) // 0.04
	reverse := lastTrade(6, 100, 600) // 0.06 after inversion

	if price := ResolveLastPrice(forward, reverse); !price.Equal(decimal.NewFromFloat(0.06)) {
		t.Fatalf("newer reversed trade should win: %s", price)
	}

	forward.StartedAt = 700
	if price := ResolveLastPrice(forward, reverse); !price.Equal(decimal.NewFromFloat(0.04)) {
		t.Fatalf("newer forward trade should win: %s", price)
	}
}

func TestResolveLastPriceTieKeepsReversedRow(t *testing.T) {
	forward := lastTrade(100, 4, 500)
	reverse := lastTrade(6, 100, 500)
	if price := ResolveLastPrice(forward, reverse); !price.Equal(decimal.NewFromFloat(0.06)) {
		t.Fatalf("start-time tie should keep the reversed row: %s", price)
	}
}

func TestResolveLastPriceNoHistoryIsZero(t *testing.T) {
	if price := ResolveLastPrice(LastTrade{}, LastTrade{}); !price.IsZero() {
		t.Fatalf("no history should resolve to zero: %s", price)
	}
}

func TestComputeVolumesAndPricesNewestTieLaterRowWins(t *testing.T) {
	swaps := []models.PairSwap{
		{UUID: "first", MakerAmount: decimal.NewFromInt(100), TakerAmount: decimal.NewFromInt(4), StartedAt: 500, TradeType: models.TradeTypeBuy},
		{UUID: "second", MakerAmount: decimal.NewFromInt(100), TakerAmount: decimal.NewFromInt(6), StartedAt: 500, TradeType: models.TradeTypeSell},
	}
	vp := ComputeVolumesAndPrices(swaps, 1, decimal.Zero)
	if !vp.LastPrice.Equal(decimal.NewFromFloat(0.06)) {
		t.Fatalf("tie on start time should keep the later row: %s", vp.LastPrice)
	}
}

func TestFoldTickerVolumesAccruesBothSides(t *testing.T) {
	rows := []models.SwapRecord{
		{MakerCoin: "KMD", MakerAmount: decimal.NewFromInt(100), TakerCoin: "BTC", TakerAmount: decimal.NewFromInt(1)},
		{MakerCoin: "BTC", MakerAmount: decimal.NewFromInt(2), TakerCoin: "KMD", TakerAmount: decimal.NewFromInt(50)},
		{MakerCoin: "DGB", MakerAmount: decimal.NewFromInt(500), TakerCoin: "KMD", TakerAmount: decimal.NewFromInt(25)},
	}
	summary := FoldTickerVolumes(rows)

	kmd := summary["KMD"]
	if kmd.Trades24h != 3 {
		t.Fatalf("KMD trades = %d, want 3", kmd.Trades24h)
	}
	if !kmd.Volume24h.Equal(decimal.NewFromInt(175)) {
		t.Fatalf("KMD volume = %s, want 175", kmd.Volume24h)
	}
	btc := summary["BTC"]
	if btc.Trades24h != 2 || !btc.Volume24h.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected BTC totals: %+v", btc)
	}
	if _, ok := summary["LTC"]; ok {
		t.Fatal("untraded ticker present in summary")
	}
}

func timelineSwap(maker string, makerAmount float64, taker string, takerAmount float64, startedAt time.Time) models.TimelineSwap {
	return models.TimelineSwap{
		MakerCoin:   maker,
		MakerAmount: decimal.NewFromFloat(makerAmount),
		TakerCoin:   taker,
		TakerAmount: decimal.NewFromFloat(takerAmount),
		StartedAt:   startedAt,
		Epoch:       startedAt.Unix(),
	}
}

func TestBucketDailyVolumesSumsTickerSidePerDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	rows := []models.TimelineSwap{
		timelineSwap("KMD", 100, "BTC", 1, now.Add(-2*time.Hour)),
		timelineSwap("BTC", 1, "KMD", 40, now.Add(-3*time.Hour)),
		timelineSwap("KMD", 60, "DGB", 500, now.AddDate(0, 0, -1)),
		// outside the window, must be dropped
		timelineSwap("KMD", 999, "BTC", 9, now.AddDate(0, 0, -5)),
	}
	history := BucketDailyVolumes(rows, "KMD", 3, now)

	if len(history) != 3 {
		t.Fatalf("expected 3 day buckets, got %d", len(history))
	}
	if !history["2024-03-10"].Equal(decimal.NewFromInt(140)) {
		t.Fatalf("2024-03-10 = %s, want 140", history["2024-03-10"])
	}
	if !history["2024-03-09"].Equal(decimal.NewFromInt(60)) {
		t.Fatalf("2024-03-09 = %s, want 60", history["2024-03-09"])
	}
	if !history["2024-03-08"].IsZero() {
		t.Fatalf("quiet day should be zero, got %s", history["2024-03-08"])
	}
}

func TestBucketDailyVolumesIgnoresOtherTickers(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := []models.TimelineSwap{
		timelineSwap("BTC", 1, "DGB", 500, now.Add(-time.Hour)),
	}
	history := BucketDailyVolumes(rows, "KMD", 1, now)
	if !history["2024-03-10"].IsZero() {
		t.Fatalf("foreign swap counted: %s", history["2024-03-10"])
	}
}
