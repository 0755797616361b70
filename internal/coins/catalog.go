/**
 * @description
 * Coin catalog: the externally maintained coins_config document mapping
 * each ticker to its platform variant metadata. The statistics engine
 * uses it for three things: grouping variant tickers under a root symbol,
 * excluding wallet-only coins from orderbook queries, and resolving the
 * external price-feed id for each ticker.
 *
 * @dependencies
 * - standard "sort", "strings"
 */

package coins

import (
	"sort"
	"strings"
)

// Placeholder price-feed ids that mean "no feed for this coin".
var unpricedIDs = map[string]bool{
	"":          true,
	"na":        true,
	"test-coin": true,
}

// Info is one catalog entry.
type Info struct {
	Coin        string `json:"coin"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	CoingeckoID string `json:"coingecko_id"`
	WalletOnly  bool   `json:"wallet_only"`
}

// Catalog is an immutable snapshot of the coin config. Build one with
// NewCatalog and share it freely; refreshes swap the whole value.
type Catalog struct {
	coins map[string]Info
}

// NewCatalog wraps a decoded coins_config map.
func NewCatalog(coins map[string]Info) *Catalog {
	if coins == nil {
		coins = map[string]Info{}
	}
	return &Catalog{coins: coins}
}

// RootSymbol strips the platform variant suffix: "KMD-BEP20" -> "KMD".
func RootSymbol(ticker string) string {
	root, _, _ := strings.Cut(ticker, "-")
	return root
}

// IsSegwit reports whether a ticker is the segwit variant of a UTXO coin.
func IsSegwit(ticker string) bool {
	return strings.HasSuffix(ticker, "-segwit")
}

// Has reports whether the ticker exists in the catalog.
func (c *Catalog) Has(ticker string) bool {
	_, ok := c.coins[ticker]
	return ok
}

// IsWalletOnly reports whether a ticker is usable for balance tracking
// only. Unknown tickers are treated as wallet-only so they are never
// queried for orders.
func (c *Catalog) IsWalletOnly(ticker string) bool {
	info, ok := c.coins[ticker]
	if !ok {
		return true
	}
	return info.WalletOnly
}

// RelatedTickers returns every catalog ticker sharing the given ticker's
// root symbol (the coin itself plus its platform variants), sorted.
func (c *Catalog) RelatedTickers(ticker string) []string {
	root := RootSymbol(ticker)
	var related []string
	for coin := range c.coins {
		if coin == root || strings.HasPrefix(coin, root+"-") {
			related = append(related, coin)
		}
	}
	sort.Strings(related)
	return related
}

// GeckoIDs returns the de-duplicated, sorted set of external price-feed
// identifiers across the catalog.
func (c *Catalog) GeckoIDs() []string {
	seen := map[string]bool{}
	var ids []string
	for _, info := range c.coins {
		if unpricedIDs[info.CoingeckoID] || seen[info.CoingeckoID] {
			continue
		}
		seen[info.CoingeckoID] = true
		ids = append(ids, info.CoingeckoID)
	}
	sort.Strings(ids)
	return ids
}

// TickersByGeckoID maps each price-feed id to every local ticker sharing
// it. A coin's root symbol rides along with its variants so "KMD" is
// priced even when only "KMD-BEP20" carries the id.
func (c *Catalog) TickersByGeckoID() map[string][]string {
	out := map[string][]string{}
	for coin, info := range c.coins {
		if unpricedIDs[info.CoingeckoID] {
			continue
		}
		out[info.CoingeckoID] = append(out[info.CoingeckoID], coin)
		root := RootSymbol(coin)
		if root != coin && !contains(out[info.CoingeckoID], root) {
			out[info.CoingeckoID] = append(out[info.CoingeckoID], root)
		}
	}
	for id := range out {
		sort.Strings(out[id])
	}
	return out
}

// Tickers returns every ticker in the catalog, sorted.
func (c *Catalog) Tickers() []string {
	out := make([]string, 0, len(c.coins))
	for coin := range c.coins {
		out = append(out, coin)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
