/**
 * @description
 * Merged orderbook models.
 * A CanonicalOrderbook is the combined live book for a pair across all
 * related coin-ticker variants, with the pre-aggregated depth totals the
 * matching engine reports per sub-pair summed as-is.
 *
 * @dependencies
 * - github.com/shopspring/decimal
 */

package models

import "github.com/shopspring/decimal"

// OrderbookPrecision is the fixed rounding applied to every price and
// volume before a merged book leaves the service.
const OrderbookPrecision = 13

// OrderbookLevel is a single price level of a merged book.
type OrderbookLevel struct {
	Price         decimal.Decimal `json:"price"`
	BaseMaxVolume decimal.Decimal `json:"base_max_volume"`
}

// CanonicalOrderbook is the merged live book for a canonical pair.
type CanonicalOrderbook struct {
	Pair             string           `json:"pair"`
	Timestamp        int64            `json:"timestamp"`
	Bids             []OrderbookLevel `json:"bids"`
	Asks             []OrderbookLevel `json:"asks"`
	TotalAsksBaseVol decimal.Decimal  `json:"total_asks_base_vol"`
	TotalBidsRelVol  decimal.Decimal  `json:"total_bids_rel_vol"`
}

// Rounded returns a copy with every figure rounded to OrderbookPrecision.
func (ob CanonicalOrderbook) Rounded() CanonicalOrderbook {
	out := ob
	out.Bids = roundLevels(ob.Bids)
	out.Asks = roundLevels(ob.Asks)
	out.TotalAsksBaseVol = ob.TotalAsksBaseVol.Round(OrderbookPrecision)
	out.TotalBidsRelVol = ob.TotalBidsRelVol.Round(OrderbookPrecision)
	return out
}

func roundLevels(levels []OrderbookLevel) []OrderbookLevel {
	out := make([]OrderbookLevel, len(levels))
	for i, l := range levels {
		out[i] = OrderbookLevel{
			Price:         l.Price.Round(OrderbookPrecision),
			BaseMaxVolume: l.BaseMaxVolume.Round(OrderbookPrecision),
		}
	}
	return out
}
