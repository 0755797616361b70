/**
 * @description
 * Aggregated statistics documents published as snapshot artifacts.
 * Field names and formatting follow the downstream consumers (CMC-style
 * summary/ticker endpoints): prices and volumes as 10-decimal strings,
 * USD figures as numbers rounded to cents.
 *
 * @dependencies
 * - github.com/shopspring/decimal
 */

package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Fixed10 renders a decimal the way every price/volume string is served.
func Fixed10(d decimal.Decimal) string {
	return d.StringFixed(10)
}

// WindowSuffix names an aggregation window in artifact keys:
// "24h" for one day, "Nd" otherwise.
func WindowSuffix(days int) string {
	if days == 1 {
		return "24h"
	}
	return fmt.Sprintf("%dd", days)
}

// TradeType marks the orientation of a folded swap relative to the
// canonical pair.
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
)

// PairSwap is a swap folded into canonical orientation: MakerAmount is
// always the base amount and TakerAmount the quote amount, regardless of
// which side was maker in the recorded trade.
type PairSwap struct {
	UUID        string
	MakerAmount decimal.Decimal
	TakerAmount decimal.Decimal
	StartedAt   int64
	TradeType   TradeType
}

// Price is the trade price in canonical orientation (quote per base).
// The bool is false when the base amount is zero (malformed row).
func (s PairSwap) Price() (decimal.Decimal, bool) {
	if s.MakerAmount.IsZero() {
		return decimal.Zero, false
	}
	return s.TakerAmount.Div(s.MakerAmount), true
}

// VolumesAndPrices holds the windowed aggregation for one pair.
type VolumesAndPrices struct {
	Suffix             string
	BaseVolume         decimal.Decimal
	QuoteVolume        decimal.Decimal
	HighestPrice       decimal.Decimal
	LowestPrice        decimal.Decimal
	LastPrice          decimal.Decimal
	PriceChangePercent decimal.Decimal
	SwapsCount         int
}

// PairSummary is one row of the summary artifact.
type PairSummary struct {
	TradingPair        string
	BaseCurrency       string
	QuoteCurrency      string
	PairSwapsCount     int
	BasePriceUsd       decimal.Decimal
	RelPriceUsd        decimal.Decimal
	BaseVolumeCoins    decimal.Decimal
	RelVolumeCoins     decimal.Decimal
	BaseLiquidityCoins decimal.Decimal
	BaseLiquidityUsd   decimal.Decimal
	BaseTradeValueUsd  decimal.Decimal
	RelLiquidityCoins  decimal.Decimal
	RelLiquidityUsd    decimal.Decimal
	RelTradeValueUsd   decimal.Decimal
	PairLiquidityUsd   decimal.Decimal
	PairTradeValueUsd  decimal.Decimal
	LowestAsk          string
	HighestBid         string
	LastPrice          string
	BaseVolume         string
	QuoteVolume        string
	PriceChangePercent string
	HighestPrice       string
	LowestPrice        string
	Suffix             string
}

// MarshalJSON emits the consumer-facing key set. Three keys carry the
// window suffix ("highest_price_24h", "highest_price_14d", ...), so the
// document cannot be described with static struct tags.
func (s PairSummary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	fields := []struct {
		key   string
		value interface{}
	}{
		{"trading_pair", s.TradingPair},
		{"base_currency", s.BaseCurrency},
		{"quote_currency", s.QuoteCurrency},
		{"pair_swaps_count", s.PairSwapsCount},
		{"base_price_usd", jsonNumber(s.BasePriceUsd)},
		{"rel_price_usd", jsonNumber(s.RelPriceUsd)},
		{"base_volume_coins", jsonNumber(s.BaseVolumeCoins)},
		{"rel_volume_coins", jsonNumber(s.RelVolumeCoins)},
		{"base_liquidity_coins", jsonNumber(s.BaseLiquidityCoins)},
		{"base_liquidity_usd", jsonNumber(s.BaseLiquidityUsd)},
		{"base_trade_value_usd", jsonNumber(s.BaseTradeValueUsd)},
		{"rel_liquidity_coins", jsonNumber(s.RelLiquidityCoins)},
		{"rel_liquidity_usd", jsonNumber(s.RelLiquidityUsd)},
		{"rel_trade_value_usd", jsonNumber(s.RelTradeValueUsd)},
		{"pair_liquidity_usd", jsonNumber(s.PairLiquidityUsd)},
		{"pair_trade_value_usd", jsonNumber(s.PairTradeValueUsd)},
		{"lowest_ask", s.LowestAsk},
		{"highest_bid", s.HighestBid},
		{"last_price", s.LastPrice},
		{"base_volume", s.BaseVolume},
		{"quote_volume", s.QuoteVolume},
		{"price_change_percent_" + s.Suffix, s.PriceChangePercent},
		{"highest_price_" + s.Suffix, s.HighestPrice},
		{"lowest_price_" + s.Suffix, s.LowestPrice},
	}
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonNumber emits a decimal as a bare JSON number (shopspring's default
// is a quoted string, which the numeric USD fields must not use).
func jsonNumber(d decimal.Decimal) json.RawMessage {
	return json.RawMessage(d.String())
}

// TickerEntry is the per-pair body of the ticker artifact.
type TickerEntry struct {
	LastPrice   string `json:"last_price"`
	QuoteVolume string `json:"quote_volume"`
	BaseVolume  string `json:"base_volume"`
	IsFrozen    string `json:"isFrozen"`
}

// PairTicker maps "BASE_QUOTE" to its ticker entry.
type PairTicker map[string]TickerEntry

// TradeInfo is one row of the trades endpoint.
type TradeInfo struct {
	TradeID     string          `json:"trade_id"`
	Price       string          `json:"price"`
	BaseVolume  decimal.Decimal `json:"base_volume"`
	QuoteVolume decimal.Decimal `json:"quote_volume"`
	Timestamp   int64           `json:"timestamp"`
	Type        TradeType       `json:"type"`
}

// SwapCounts are the DEX-wide success counters of the atomicdexio artifact.
type SwapCounts struct {
	SwapsAllTime int64 `json:"swaps_all_time"`
	Swaps24h     int64 `json:"swaps_24h"`
	Swaps30d     int64 `json:"swaps_30d"`
}

// AtomicdexInfo is the atomicdexio artifact.
type AtomicdexInfo struct {
	SwapCounts
	CurrentLiquidity float64 `json:"current_liquidity"`
}

// TopPairs are the fortnight leaders, three per ranking.
type TopPairs struct {
	ByValueTradedUsd      []map[string]float64 `json:"by_value_traded_usd"`
	ByCurrentLiquidityUsd []map[string]float64 `json:"by_current_liquidity_usd"`
	BySwapsCount          []map[string]int     `json:"by_swaps_count"`
}

// FortnightInfo is the timespan (default 14 day) artifact.
type FortnightInfo struct {
	Days             int      `json:"days"`
	SwapsCount       int64    `json:"swaps_count"`
	SwapsValue       float64  `json:"swaps_value"`
	CurrentLiquidity float64  `json:"current_liquidity"`
	TopPairs         TopPairs `json:"top_pairs"`
}

// UsdVolume is the DEX-wide 24h volume artifact.
type UsdVolume struct {
	UsdVolume24h float64 `json:"usd_volume_24h"`
}

// TickerVolume is one ticker's aggregated 24h activity.
type TickerVolume struct {
	Volume24h decimal.Decimal
	Trades24h int64
}

func (v TickerVolume) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Volume24h json.RawMessage `json:"volume_24h"`
		Trades24h int64           `json:"trades_24h"`
	}{
		Volume24h: jsonNumber(v.Volume24h),
		Trades24h: v.Trades24h,
	})
}

// TickersSummary maps each traded ticker to its 24h totals.
type TickersSummary map[string]TickerVolume

// TickerSwaps is the per-ticker swap counter payload.
type TickerSwaps struct {
	Swaps24h int64 `json:"swaps_amount_24h"`
}

// VolumeHistory maps "YYYY-MM-DD" to the coins of one ticker traded
// that day. Volumes are emitted as bare numbers.
type VolumeHistory map[string]decimal.Decimal

func (h VolumeHistory) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(h))
	for day, volume := range h {
		out[day] = jsonNumber(volume)
	}
	return json.Marshal(out)
}
