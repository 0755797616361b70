package services

import (
	"testing"

	"github.com/dexstats-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

func usd(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestDexUsdVolumeTakesLargerSidePerPair(t *testing.T) {
	summaries := []models.PairSummary{
		{
			TradingPair:     "DGB_KMD",
			BasePriceUsd:    usd(0.01),
			BaseVolumeCoins: decimal.NewFromInt(1000), // 10 USD
			RelPriceUsd:     usd(0.25),
			RelVolumeCoins:  decimal.NewFromInt(100), // 25 USD
		},
		{
			TradingPair:     "KMD_BTC",
			BasePriceUsd:    usd(0.25),
			BaseVolumeCoins: decimal.NewFromInt(400), // 100 USD
			RelPriceUsd:     usd(60000),
			RelVolumeCoins:  decimal.Zero, // 0 USD, oracle gap
		},
	}
	total := DexUsdVolume(summaries)
	if !total.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected 125, got %s", total)
	}
}

func TestTotalsSumAcrossPairs(t *testing.T) {
	summaries := []models.PairSummary{
		{PairLiquidityUsd: usd(10), PairTradeValueUsd: usd(1)},
		{PairLiquidityUsd: usd(30), PairTradeValueUsd: usd(2)},
	}
	if got := TotalLiquidity(summaries); !got.Equal(usd(40)) {
		t.Fatalf("unexpected liquidity: %s", got)
	}
	if got := TotalTradeValue(summaries); !got.Equal(usd(3)) {
		t.Fatalf("unexpected trade value: %s", got)
	}
}

func TestTopPairsFromRanksAndBreaksTiesByName(t *testing.T) {
	summaries := []models.PairSummary{
		{TradingPair: "DGB_KMD", PairTradeValueUsd: usd(50), PairLiquidityUsd: usd(5), PairSwapsCount: 3},
		{TradingPair: "KMD_BTC", PairTradeValueUsd: usd(200), PairLiquidityUsd: usd(5), PairSwapsCount: 9},
		{TradingPair: "LTC_BTC", PairTradeValueUsd: usd(100), PairLiquidityUsd: usd(80), PairSwapsCount: 9},
		{TradingPair: "DOGE_KMD", PairTradeValueUsd: usd(1), PairLiquidityUsd: usd(1), PairSwapsCount: 1},
	}
	top := TopPairsFrom(summaries)

	if len(top.ByValueTradedUsd) != 3 {
		t.Fatalf("expected top 3, got %d", len(top.ByValueTradedUsd))
	}
	if _, ok := top.ByValueTradedUsd[0]["KMD_BTC"]; !ok {
		t.Fatalf("unexpected value leader: %v", top.ByValueTradedUsd[0])
	}
	if top.ByValueTradedUsd[0]["KMD_BTC"] != 200 {
		t.Fatalf("unexpected leader value: %v", top.ByValueTradedUsd[0])
	}

	// liquidity tie between DGB_KMD and KMD_BTC resolves alphabetically
	if _, ok := top.ByCurrentLiquidityUsd[1]["DGB_KMD"]; !ok {
		t.Fatalf("tie should break on pair name: %v", top.ByCurrentLiquidityUsd)
	}

	// swaps tie between KMD_BTC and LTC_BTC resolves alphabetically
	if _, ok := top.BySwapsCount[0]["KMD_BTC"]; !ok {
		t.Fatalf("tie should break on pair name: %v", top.BySwapsCount)
	}
}

func TestTopPairsFromFewerThanThree(t *testing.T) {
	top := TopPairsFrom([]models.PairSummary{
		{TradingPair: "DGB_KMD", PairTradeValueUsd: usd(50)},
	})
	if len(top.ByValueTradedUsd) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(top.ByValueTradedUsd))
	}
	if top.BySwapsCount == nil {
		t.Fatal("rankings must marshal as arrays, never null")
	}
}
