/**
 * @description
 * HTTP client for the external price oracle (CoinGecko simple/price).
 * Derives the de-duplicated feed id set from the coin catalog, batches
 * requests (the feed caps ids per call), and scatters each returned price
 * back across every local ticker sharing that feed id, so a coin and its
 * token variants all resolve to one price.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/coins
 * - backend/internal/config
 */

package gecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dexstats-project/backend/internal/coins"
	"github.com/dexstats-project/backend/internal/config"
	"github.com/dexstats-project/backend/internal/logger"
	"github.com/shopspring/decimal"
)

const DefaultTimeout = 30 * time.Second

type Client struct {
	BaseURL    string
	BatchSize  int
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:   cfg.Gecko.BaseURL,
		BatchSize: cfg.Gecko.BatchSize,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// simplePriceEntry is one feed response row. Values arrive as JSON
// numbers; json.Number keeps them lossless until decimal conversion.
type simplePriceEntry struct {
	Usd          json.Number `json:"usd"`
	UsdMarketCap json.Number `json:"usd_market_cap"`
}

// FetchPrices builds a complete oracle snapshot for the catalog. Every
// catalog ticker appears in the snapshot; tickers without a feed id, or
// whose batch failed, stay at zero. An error is returned only when no
// batch succeeded at all.
func (c *Client) FetchPrices(ctx context.Context, catalog *coins.Catalog) (*Snapshot, error) {
	snap := &Snapshot{
		Coins:     make(map[string]CoinPrice),
		FetchedAt: time.Now().UTC(),
	}
	byID := catalog.TickersByGeckoID()
	for id, tickers := range byID {
		for _, ticker := range tickers {
			snap.Coins[ticker] = CoinPrice{CoingeckoID: id}
		}
	}
	for _, ticker := range catalog.Tickers() {
		if _, ok := snap.Coins[ticker]; !ok {
			snap.Coins[ticker] = CoinPrice{}
		}
	}

	ids := catalog.GeckoIDs()
	fetched := 0
	for _, chunk := range chunkIDs(ids, c.BatchSize) {
		prices, err := c.fetchChunk(ctx, chunk)
		if err != nil {
			logger.Warning("Price feed chunk of %d ids failed: %v", len(chunk), err)
			continue
		}
		fetched++
		for id, entry := range prices {
			tickers, ok := byID[id]
			if !ok {
				// feed id request/response mismatch, skip
				logger.Warning("Price feed returned unknown id %q", id)
				continue
			}
			price := toDecimal(entry.Usd)
			cap := toDecimal(entry.UsdMarketCap)
			for _, ticker := range tickers {
				snap.Coins[ticker] = CoinPrice{
					UsdPrice:     price,
					UsdMarketCap: cap,
					CoingeckoID:  id,
				}
			}
		}
	}

	if len(ids) > 0 && fetched == 0 {
		return nil, fmt.Errorf("all %d price feed batches failed", (len(ids)+c.BatchSize-1)/c.BatchSize)
	}
	return snap, nil
}

func (c *Client) fetchChunk(ctx context.Context, ids []string) (map[string]simplePriceEntry, error) {
	u, err := url.Parse(fmt.Sprintf("%s/simple/price", c.BaseURL))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_market_cap", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed error: status %d", resp.StatusCode)
	}

	var prices map[string]simplePriceEntry
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, err
	}
	return prices, nil
}

func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = 200
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func toDecimal(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
