package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWindowSuffix(t *testing.T) {
	if got := WindowSuffix(1); got != "24h" {
		t.Fatalf("got %q, want 24h", got)
	}
	if got := WindowSuffix(14); got != "14d" {
		t.Fatalf("got %q, want 14d", got)
	}
}

func TestPairSwapPrice(t *testing.T) {
	swap := PairSwap{
		MakerAmount: decimal.NewFromInt(100),
		TakerAmount: decimal.NewFromInt(25),
	}
	price, ok := swap.Price()
	if !ok {
		t.Fatal("expected a price")
	}
	if !price.Equal(decimal.NewFromFloat(0.25)) {
		t.Fatalf("unexpected price: %s", price)
	}

	swap.MakerAmount = decimal.Zero
	if _, ok := swap.Price(); ok {
		t.Fatal("zero base amount must not produce a price")
	}
}

func TestPairSummaryMarshalSuffixKeys(t *testing.T) {
	summary := PairSummary{
		TradingPair:        "DGB_KMD",
		BaseCurrency:       "DGB",
		QuoteCurrency:      "KMD",
		PairSwapsCount:     2,
		LastPrice:          "0.0500000000",
		PriceChangePercent: "0.0000000000",
		HighestPrice:       "0.0600000000",
		LowestPrice:        "0.0400000000",
		Suffix:             "14d",
	}
	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"price_change_percent_14d", "highest_price_14d", "lowest_price_14d"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing suffixed key %q in %s", key, data)
		}
	}
	if _, ok := doc["highest_price_24h"]; ok {
		t.Fatal("wrong window suffix in keys")
	}
}

func TestPairSummaryMarshalBareNumbers(t *testing.T) {
	summary := PairSummary{
		TradingPair:  "DGB_KMD",
		BasePriceUsd: decimal.NewFromFloat(0.01),
		Suffix:       "24h",
	}
	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"base_price_usd":0.01`) {
		t.Fatalf("USD fields must be bare numbers, got %s", data)
	}
}

func TestTickerVolumeMarshalBareNumbers(t *testing.T) {
	summary := TickersSummary{
		"KMD": {Volume24h: decimal.NewFromFloat(175.5), Trades24h: 3},
	}
	data, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"KMD":{"volume_24h":175.5,"trades_24h":3}}`
	if string(data) != want {
		t.Fatalf("unexpected tickers summary JSON: %s", data)
	}
}

func TestVolumeHistoryMarshalBareNumbers(t *testing.T) {
	history := VolumeHistory{
		"2024-03-10": decimal.NewFromFloat(140.25),
		"2024-03-09": decimal.Zero,
	}
	data, err := json.Marshal(history)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"2024-03-09":0,"2024-03-10":140.25}` {
		t.Fatalf("unexpected volume history JSON: %s", data)
	}
}
