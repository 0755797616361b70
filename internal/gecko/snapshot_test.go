package gecko

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSnapshotPriceUnknownIsZero(t *testing.T) {
	snap := EmptySnapshot()
	if !snap.Price("KMD").IsZero() {
		t.Fatal("unknown ticker must price at zero")
	}
	if !snap.UsdValue(decimal.NewFromInt(100), "KMD").IsZero() {
		t.Fatal("unknown ticker must value at zero")
	}
}

func TestSnapshotMarketCapZeroIsUnknown(t *testing.T) {
	snap := &Snapshot{Coins: map[string]CoinPrice{
		"KMD": {UsdPrice: decimal.NewFromFloat(0.25), UsdMarketCap: decimal.Zero},
		"BTC": {UsdPrice: decimal.NewFromInt(60000), UsdMarketCap: decimal.NewFromInt(1000000)},
	}}
	if _, ok := snap.MarketCap("KMD"); ok {
		t.Fatal("zero cap must count as unknown")
	}
	cap, ok := snap.MarketCap("BTC")
	if !ok || !cap.Equal(decimal.NewFromInt(1000000)) {
		t.Fatalf("unexpected cap: %s %v", cap, ok)
	}
	if _, ok := snap.MarketCap("NOPE"); ok {
		t.Fatal("missing ticker must count as unknown")
	}
}

func TestCoinPriceMarshalBareNumbers(t *testing.T) {
	p := CoinPrice{
		UsdPrice:     decimal.NewFromFloat(0.25),
		UsdMarketCap: decimal.NewFromInt(42),
		CoingeckoID:  "komodo",
	}
	data, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"usd_price":0.25`) {
		t.Fatalf("usd_price must be a bare number, got %s", data)
	}
	if !strings.Contains(string(data), `"usd_market_cap":42`) {
		t.Fatalf("usd_market_cap must be a bare number, got %s", data)
	}
}

func TestCacheHoldsLatestSnapshot(t *testing.T) {
	cache := NewCache()
	if len(cache.Snapshot().Coins) != 0 {
		t.Fatal("fresh cache should hold an empty snapshot")
	}
	snap := &Snapshot{Coins: map[string]CoinPrice{"KMD": {UsdPrice: decimal.NewFromInt(1)}}}
	cache.Set(snap)
	if cache.Snapshot() != snap {
		t.Fatal("cache should return the installed snapshot")
	}
}
