/**
 * @description
 * Wire types for the order-matching engine's orderbook RPC.
 * Prices and volumes arrive as strings; the pre-aggregated depth totals
 * are reported per sub-pair by the engine and summed as-is by the merger.
 */

package dexapi

// OrderbookRequest is the JSON-RPC body of the orderbook method.
type OrderbookRequest struct {
	Method string `json:"method"`
	Base   string `json:"base"`
	Rel    string `json:"rel"`
}

// RawLevel is one bid or ask as the engine reports it.
type RawLevel struct {
	Price         string `json:"price"`
	BaseMaxVolume string `json:"base_max_volume"`
}

// OrderbookResponse is the engine's reply. Error is set (and the lists
// empty) when the engine does not recognise a ticker.
type OrderbookResponse struct {
	Bids             []RawLevel `json:"bids"`
	Asks             []RawLevel `json:"asks"`
	TotalAsksBaseVol string     `json:"total_asks_base_vol"`
	TotalBidsRelVol  string     `json:"total_bids_rel_vol"`
	Error            string     `json:"error,omitempty"`
}
