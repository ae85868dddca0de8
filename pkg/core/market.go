package core

import (
	"github.com/cockroachdb/apd/v3"
)

// MinMax bounds a numeric order attribute. A nil field means the exchange
// does not publish that bound.
type MinMax struct {
	Min *apd.Decimal `json:"min,omitempty"`
	Max *apd.Decimal `json:"max,omitempty"`
}

// Precision holds the numeric granularity of amount and price fields.
// Values are decimal-place counts as reported by the exchange; a nil field
// means the granularity is not published for this market.
type Precision struct {
	Amount *apd.Decimal `json:"amount,omitempty"`
	Price  *apd.Decimal `json:"price,omitempty"`
}

// Limits groups the order constraints an exchange enforces per market.
type Limits struct {
	Amount   MinMax `json:"amount"`
	Price    MinMax `json:"price"`
	Cost     MinMax `json:"cost"`
	Leverage MinMax `json:"leverage"`
}

// Market is the canonical description of one tradable instrument.
// It is constructed fresh on every catalog fetch and never mutated afterward.
type Market struct {
	// ID is the exchange-native symbol (e.g. "BTC-USDT").
	ID string `json:"id"`
	// Symbol is the unified "BASE/QUOTE" identifier.
	Symbol string `json:"symbol"`
	// Base and Quote are the canonicalized currency codes.
	Base  string `json:"base"`
	Quote string `json:"quote"`
	// BaseID and QuoteID are the raw currency codes as split from ID.
	BaseID  string `json:"base_id"`
	QuoteID string `json:"quote_id"`
	// Settle is the settlement currency for contract markets, when known.
	Settle string `json:"settle,omitempty"`

	// Type classifies the market as spot or swap.
	Type MarketType `json:"type"`
	// Derived classification flags.
	Spot     bool `json:"spot"`
	Margin   bool `json:"margin"`
	Swap     bool `json:"swap"`
	Future   bool `json:"future"`
	Option   bool `json:"option"`
	Contract bool `json:"contract"`
	Linear   bool `json:"linear"`
	Inverse  bool `json:"inverse"`

	// Active reports whether the market is currently tradable.
	Active bool `json:"active"`

	// ContractSize is the unit size of one contract, when published.
	ContractSize *apd.Decimal `json:"contract_size,omitempty"`

	Precision Precision `json:"precision"`
	Limits    Limits    `json:"limits"`

	// Info keeps an opaque copy of the raw exchange record for diagnostics.
	Info map[string]any `json:"info,omitempty"`
}
