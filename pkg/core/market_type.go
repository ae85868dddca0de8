package core

// MarketType represents the settlement class of a tradable instrument.
type MarketType int

// Market type constants define the available trading market categories.
const (
	// MarketTypeSpot indicates immediate-settlement markets.
	MarketTypeSpot MarketType = iota
	// MarketTypeSwap indicates perpetual-contract markets.
	MarketTypeSwap
)

// String returns the string representation of the market type ("spot" or "swap").
func (m MarketType) String() string {
	switch m {
	case MarketTypeSpot:
		return "spot"
	case MarketTypeSwap:
		return "swap"
	default:
		return "unknown"
	}
}

// ParseMarketType converts a market type label to a MarketType.
// The second return value reports whether the label was recognized.
func ParseMarketType(s string) (MarketType, bool) {
	switch s {
	case "spot":
		return MarketTypeSpot, true
	case "swap":
		return MarketTypeSwap, true
	}
	return MarketTypeSpot, false
}
