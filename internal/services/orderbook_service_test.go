package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dexstats-project/backend/internal/coins"
	"github.com/dexstats-project/backend/internal/dexapi"
	"github.com/dexstats-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

type fakeBookSource struct {
	books   map[string]*dexapi.OrderbookResponse
	errs    map[string]error
	queried []string
}

func (f *fakeBookSource) Orderbook(ctx context.Context, base, rel string) (*dexapi.OrderbookResponse, error) {
	key := base + "/" + rel
	f.queried = append(f.queried, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if book, ok := f.books[key]; ok {
		return book, nil
	}
	return &dexapi.OrderbookResponse{}, nil
}

func bookCatalog() *coins.Cache {
	cache := coins.NewCache()
	cache.Set(coins.NewCatalog(map[string]coins.Info{
		"KMD":        {Coin: "KMD"},
		"KMD-BEP20":  {Coin: "KMD-BEP20"},
		"DGB":        {Coin: "DGB"},
		"DGB-segwit": {Coin: "DGB-segwit"},
		"BTC":        {Coin: "BTC"},
		"BTC-segwit": {Coin: "BTC-segwit"},
		"ARRR":       {Coin: "ARRR", WalletOnly: true},
	}))
	return cache
}

func mustPair(t *testing.T, s string) models.CanonicalPair {
	t.Helper()
	pair, err := models.NewPair(s)
	if err != nil {
		t.Fatalf("bad pair %q: %v", s, err)
	}
	return pair
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestMergedSkipsBothSegwitSubPairs(t *testing.T) {
	source := &fakeBookSource{}
	svc := NewOrderbookService(source, bookCatalog())

	if _, err := svc.Merged(context.Background(), mustPair(t, "DGB_BTC")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if contains(source.queried, "DGB-segwit/BTC-segwit") {
		t.Fatalf("both-segwit sub-pair must not be queried: %v", source.queried)
	}
	for _, want := range []string{"DGB/BTC", "DGB/BTC-segwit", "DGB-segwit/BTC"} {
		if !contains(source.queried, want) {
			t.Fatalf("missing sub-pair %s in %v", want, source.queried)
		}
	}
}

func TestMergedSkipsWalletOnlyLegs(t *testing.T) {
	source := &fakeBookSource{}
	svc := NewOrderbookService(source, bookCatalog())

	book, err := svc.Merged(context.Background(), mustPair(t, "ARRR_KMD"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(source.queried) != 0 {
		t.Fatalf("wallet-only legs must not be queried: %v", source.queried)
	}
	if len(book.Bids) != 0 || len(book.Asks) != 0 {
		t.Fatal("expected an empty merged book")
	}
}

func TestMergedSkipsSelfSubPairs(t *testing.T) {
	source := &fakeBookSource{}
	svc := NewOrderbookService(source, bookCatalog())

	// both sides resolve to the same variant set
	if _, err := svc.Merged(context.Background(), mustPair(t, "KMD_KMD-BEP20")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, q := range source.queried {
		if q == "KMD/KMD" || q == "KMD-BEP20/KMD-BEP20" {
			t.Fatalf("self sub-pair queried: %v", source.queried)
		}
	}
}

func TestMergedToleratesFailingLeg(t *testing.T) {
	source := &fakeBookSource{
		books: map[string]*dexapi.OrderbookResponse{
			"KMD/BTC": {
				Asks:             []dexapi.RawLevel{{Price: "0.00001", BaseMaxVolume: "500"}},
				TotalAsksBaseVol: "500",
			},
		},
		errs: map[string]error{
			"KMD/BTC-segwit":       errors.New("connection refused"),
			"KMD-BEP20/BTC":        errors.New("connection refused"),
			"KMD-BEP20/BTC-segwit": errors.New("connection refused"),
		},
	}
	svc := NewOrderbookService(source, bookCatalog())

	book, err := svc.Merged(context.Background(), mustPair(t, "KMD_BTC"))
	if err != nil {
		t.Fatalf("a failing leg must not fail the merge: %v", err)
	}
	if len(book.Asks) != 1 {
		t.Fatalf("healthy leg should contribute: %+v", book)
	}
	if !book.TotalAsksBaseVol.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected asks total: %s", book.TotalAsksBaseVol)
	}
}

func TestMergedSumsTotalsAndRounds(t *testing.T) {
	source := &fakeBookSource{
		books: map[string]*dexapi.OrderbookResponse{
			"KMD/BTC": {
				Bids:             []dexapi.RawLevel{{Price: "0.12345678901234567", BaseMaxVolume: "10"}},
				TotalAsksBaseVol: "100.5",
				TotalBidsRelVol:  "1.25",
			},
			"KMD-BEP20/BTC": {
				Bids:             []dexapi.RawLevel{{Price: "0.2", BaseMaxVolume: "bogus"}},
				TotalAsksBaseVol: "99.5",
				TotalBidsRelVol:  "0.75",
			},
		},
	}
	svc := NewOrderbookService(source, bookCatalog())

	book, err := svc.Merged(context.Background(), mustPair(t, "KMD_BTC"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the malformed level is dropped, the parseable one survives rounded
	if len(book.Bids) != 1 {
		t.Fatalf("expected 1 bid, got %d", len(book.Bids))
	}
	if !book.Bids[0].Price.Equal(decimal.RequireFromString("0.1234567890123")) {
		t.Fatalf("bid price not rounded: %s", book.Bids[0].Price)
	}
	if !book.TotalAsksBaseVol.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("asks totals should sum across legs: %s", book.TotalAsksBaseVol)
	}
	if !book.TotalBidsRelVol.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("bids totals should sum across legs: %s", book.TotalBidsRelVol)
	}
}

func TestMergedRejectedLegSkipped(t *testing.T) {
	source := &fakeBookSource{
		books: map[string]*dexapi.OrderbookResponse{
			"KMD/BTC": {
				Error:            "no such pair",
				Asks:             []dexapi.RawLevel{{Price: "1", BaseMaxVolume: "1"}},
				TotalAsksBaseVol: "1",
			},
		},
	}
	svc := NewOrderbookService(source, bookCatalog())

	book, err := svc.Merged(context.Background(), mustPair(t, "KMD_BTC"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(book.Asks) != 0 || !book.TotalAsksBaseVol.IsZero() {
		t.Fatalf("rejected leg must contribute nothing: %+v", book)
	}
}

func TestFindBestLevels(t *testing.T) {
	book := models.CanonicalOrderbook{
		Asks: []models.OrderbookLevel{
			{Price: decimal.NewFromFloat(0.3)},
			{Price: decimal.NewFromFloat(0.1)},
			{Price: decimal.NewFromFloat(0.2)},
		},
		Bids: []models.OrderbookLevel{
			{Price: decimal.NewFromFloat(0.05)},
			{Price: decimal.NewFromFloat(0.09)},
		},
	}
	if got := FindLowestAsk(book); got != "0.1000000000" {
		t.Fatalf("unexpected lowest ask: %s", got)
	}
	if got := FindHighestBid(book); got != "0.0900000000" {
		t.Fatalf("unexpected highest bid: %s", got)
	}

	empty := models.CanonicalOrderbook{}
	if got := FindLowestAsk(empty); got != "0.0000000000" {
		t.Fatalf("empty book should resolve to zero: %s", got)
	}
	if got := FindHighestBid(empty); got != "0.0000000000" {
		t.Fatalf("empty book should resolve to zero: %s", got)
	}
}
