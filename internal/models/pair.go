/**
 * @description
 * CanonicalPair value type.
 * A pair is constructed once, validated at construction, and passed by
 * value everywhere; it replaces the historical pattern of accepting either
 * a "BASE_QUOTE" string or an ad-hoc tuple at every call site.
 *
 * @dependencies
 * - standard "strings"
 */

package models

import (
	"fmt"
	"strings"
)

// ErrInvalidPair is returned when a pair string does not contain exactly
// two non-empty ticker components.
var ErrInvalidPair = fmt.Errorf("not valid pair")

// CanonicalPair is the deterministic (base, quote) ordering of a trading
// pair, independent of which coin was maker in any individual trade.
type CanonicalPair struct {
	Base  string
	Quote string
}

// NewPair parses a "BASE_QUOTE" string.
func NewPair(pair string) (CanonicalPair, error) {
	parts := strings.Split(pair, "_")
	if len(parts) != 2 {
		return CanonicalPair{}, fmt.Errorf("%w: %q", ErrInvalidPair, pair)
	}
	return NewPairFromTickers(parts[0], parts[1])
}

// NewPairFromTickers builds a pair from two tickers.
func NewPairFromTickers(base, quote string) (CanonicalPair, error) {
	if base == "" || quote == "" {
		return CanonicalPair{}, fmt.Errorf("%w: (%q, %q)", ErrInvalidPair, base, quote)
	}
	return CanonicalPair{Base: base, Quote: quote}, nil
}

// String renders the pair as "BASE_QUOTE".
func (p CanonicalPair) String() string {
	return p.Base + "_" + p.Quote
}

// Reversed returns the opposite orientation.
func (p CanonicalPair) Reversed() CanonicalPair {
	return CanonicalPair{Base: p.Quote, Quote: p.Base}
}
