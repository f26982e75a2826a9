// Package universe builds the tracked asset set from a market-cap-ranked
// snapshot and the stream exchange's tradable-symbol list.
package universe

import (
	"strings"

	"rsipulse/internal/model"
)

// QuoteSuffix is the fixed quote currency appended to an asset's ticker to
// form its exchange pair identifier.
const QuoteSuffix = "USDT"

// DefaultMaxAssets caps the tracked universe size.
const DefaultMaxAssets = 100

// StablecoinSymbols is the denylist of stable-value assets excluded from
// tracking: an RSI on a pegged asset carries no signal. Matched
// case-insensitively on the ticker.
var StablecoinSymbols = map[string]bool{
	"usdt": true, "usdc": true, "busd": true, "dai": true, "tusd": true,
	"ustc": true, "usdp": true, "ust": true, "frax": true, "lusd": true,
	"gusd": true, "usdn": true, "fdusd": true,
}

// Wrapped-token heuristic. The naming convention is not authoritative, so
// the rule is expected to occasionally misclassify; WrappedAllowlist patches
// the known false positives and is consulted before the prefix rule.
const (
	wrappedNameMarker  = "wrapped"
	wrappedPrefix      = "w"
	wrappedPrefixMinLen = 4
)

// WrappedAllowlist lists symbols that collide with the wrapped-token
// heuristic but are ordinary assets.
var WrappedAllowlist = map[string]bool{
	"woo":   true,
	"waves": true,
}

// Selector filters a ranked candidate list down to the tracked universe.
type Selector struct {
	MaxAssets int
}

// NewSelector creates a Selector with the default universe cap.
func NewSelector() *Selector {
	return &Selector{MaxAssets: DefaultMaxAssets}
}

// Pair derives the exchange pair identifier for a ticker symbol.
func Pair(symbol string) string {
	return strings.ToUpper(symbol) + QuoteSuffix
}

// Select applies the filter pipeline to candidates (already ranked by market
// cap descending) against the set of actively tradable pair symbols and
// returns up to MaxAssets accepted assets with their derived pair. Input
// rank order is preserved.
func (s *Selector) Select(candidates []model.MarketEntry, tradable map[string]bool) []model.Asset {
	max := s.MaxAssets
	if max <= 0 {
		max = DefaultMaxAssets
	}

	assets := make([]model.Asset, 0, max)
	for _, c := range candidates {
		pair := Pair(c.Symbol)
		if !tradable[pair] {
			continue
		}
		if StablecoinSymbols[strings.ToLower(c.Symbol)] {
			continue
		}
		if isWrapped(c.Symbol, c.Name) {
			continue
		}
		assets = append(assets, model.Asset{
			ID:             c.ID,
			Symbol:         c.Symbol,
			Name:           c.Name,
			Image:          c.Image,
			CurrentPrice:   c.CurrentPrice,
			MarketCap:      c.MarketCap,
			TotalVolume:    c.TotalVolume,
			PriceChange24h: c.PriceChange24h,
			BinancePair:    pair,
		})
		if len(assets) == max {
			break
		}
	}
	return assets
}

func isWrapped(symbol, name string) bool {
	sym := strings.ToLower(symbol)
	byName := strings.HasPrefix(strings.ToLower(name), wrappedNameMarker)
	byPrefix := strings.HasPrefix(sym, wrappedPrefix) && len(sym) >= wrappedPrefixMinLen
	if !byName && !byPrefix {
		return false
	}
	return !WrappedAllowlist[sym]
}
