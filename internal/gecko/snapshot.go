/**
 * @description
 * Price oracle snapshot: ticker -> {usd_price, usd_market_cap, feed id}.
 * A snapshot is immutable once built; an aggregation pass captures one
 * snapshot up front and reads market caps and USD prices from that same
 * value throughout, so a single output record never mixes oracle states.
 * Unknown tickers degrade to zero, never to an error.
 *
 * @dependencies
 * - github.com/shopspring/decimal
 */

package gecko

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// CoinPrice is the oracle's view of one ticker.
type CoinPrice struct {
	UsdPrice     decimal.Decimal
	UsdMarketCap decimal.Decimal
	CoingeckoID  string
}

// MarshalJSON emits USD figures as bare numbers for the fiat_rates
// artifact (shopspring's default quoted form would change the document
// shape downstream consumers parse).
func (p CoinPrice) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UsdPrice     json.RawMessage `json:"usd_price"`
		UsdMarketCap json.RawMessage `json:"usd_market_cap"`
		CoingeckoID  string          `json:"coingecko_id"`
	}{
		UsdPrice:     json.RawMessage(p.UsdPrice.String()),
		UsdMarketCap: json.RawMessage(p.UsdMarketCap.String()),
		CoingeckoID:  p.CoingeckoID,
	})
}

// Snapshot is one consistent point-in-time oracle read.
type Snapshot struct {
	Coins     map[string]CoinPrice
	FetchedAt time.Time
}

// EmptySnapshot is a snapshot that prices everything at zero. Used before
// the first oracle refresh completes.
func EmptySnapshot() *Snapshot {
	return &Snapshot{Coins: map[string]CoinPrice{}}
}

// Price returns the USD price for a ticker, zero when unknown.
func (s *Snapshot) Price(ticker string) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	return s.Coins[ticker].UsdPrice
}

// MarketCap returns the USD market cap and whether it is known. A zero
// cap counts as unknown: the feed reports zero for coins it cannot value.
func (s *Snapshot) MarketCap(ticker string) (decimal.Decimal, bool) {
	if s == nil {
		return decimal.Zero, false
	}
	info, ok := s.Coins[ticker]
	if !ok || info.UsdMarketCap.IsZero() {
		return decimal.Zero, false
	}
	return info.UsdMarketCap, true
}

// UsdValue converts a coin-denominated amount to USD.
func (s *Snapshot) UsdValue(amount decimal.Decimal, ticker string) decimal.Decimal {
	return amount.Mul(s.Price(ticker))
}

// Cache is the single-writer (refresh task), multi-reader snapshot holder.
type Cache struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewCache() *Cache {
	return &Cache{snap: EmptySnapshot()}
}

// Snapshot returns the current snapshot. Callers hold the returned value
// for the duration of a pass instead of re-reading the cache.
func (c *Cache) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Set replaces the snapshot in full.
func (c *Cache) Set(snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
}
