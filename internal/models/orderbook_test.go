package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderbookRounded(t *testing.T) {
	price := decimal.RequireFromString("0.12345678901234567")
	book := CanonicalOrderbook{
		Pair:             "DGB_KMD",
		Bids:             []OrderbookLevel{{Price: price, BaseMaxVolume: price}},
		Asks:             []OrderbookLevel{{Price: price, BaseMaxVolume: price}},
		TotalAsksBaseVol: price,
		TotalBidsRelVol:  price,
	}

	rounded := book.Rounded()
	want := decimal.RequireFromString("0.1234567890123")
	for _, got := range []decimal.Decimal{
		rounded.Bids[0].Price,
		rounded.Bids[0].BaseMaxVolume,
		rounded.Asks[0].Price,
		rounded.Asks[0].BaseMaxVolume,
		rounded.TotalAsksBaseVol,
		rounded.TotalBidsRelVol,
	} {
		if !got.Equal(want) {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}

	// the original book keeps full precision
	if !book.Bids[0].Price.Equal(price) {
		t.Fatal("Rounded must not mutate the receiver")
	}
}
