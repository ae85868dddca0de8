package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Ticker represents real-time market data for a trading pair.
type Ticker struct {
	// Symbol is the unified trading pair identifier (e.g. "BTC/USDT").
	Symbol string `json:"symbol"`
	// Last is the price of the most recent trade.
	Last apd.Decimal `json:"last"`
	// Open is the price 24 hours ago.
	Open apd.Decimal `json:"open"`
	// High is the highest price in the last 24 hours.
	High apd.Decimal `json:"high"`
	// Low is the lowest price in the last 24 hours.
	Low apd.Decimal `json:"low"`
	// Volume is the base volume traded in the last 24 hours.
	Volume apd.Decimal `json:"volume"`
	// QuoteVolume is the quote volume traded in the last 24 hours.
	QuoteVolume apd.Decimal `json:"quote_volume"`
	// Timestamp is when this ticker data was generated.
	Timestamp time.Time `json:"timestamp"`
}

// OrderBookLevel represents a single price level in the order book.
type OrderBookLevel struct {
	Price    apd.Decimal `json:"price"`
	Quantity apd.Decimal `json:"quantity"`
}

// OrderBook represents a depth snapshot for a trading pair.
type OrderBook struct {
	// Symbol is the unified trading pair for this order book.
	Symbol string `json:"symbol"`
	// Bids are buy orders sorted by price descending.
	Bids []OrderBookLevel `json:"bids"`
	// Asks are sell orders sorted by price ascending.
	Asks []OrderBookLevel `json:"asks"`
	// Timestamp is when this snapshot was taken.
	Timestamp time.Time `json:"timestamp"`
}

// TradeSide is the taker direction of a public trade.
type TradeSide int

const (
	// TradeSideBuy indicates the taker bought.
	TradeSideBuy TradeSide = iota
	// TradeSideSell indicates the taker sold.
	TradeSideSell
)

// String returns the string representation of the trade side ("BUY" or "SELL").
func (s TradeSide) String() string {
	return [...]string{"BUY", "SELL"}[s]
}

// Trade represents a single public trade.
type Trade struct {
	// ID is the exchange-assigned trade identifier.
	ID string `json:"id"`
	// Symbol is the unified trading pair for this trade.
	Symbol string `json:"symbol"`
	// Side is the taker direction.
	Side TradeSide `json:"side"`
	// Price is the execution price.
	Price apd.Decimal `json:"price"`
	// Quantity is the executed amount.
	Quantity apd.Decimal `json:"quantity"`
	// Timestamp is when the trade was executed.
	Timestamp time.Time `json:"timestamp"`
}

// FundingRate represents the current funding state of a perpetual market.
type FundingRate struct {
	// Symbol is the unified trading pair.
	Symbol string `json:"symbol"`
	// MarkPrice is the current mark price.
	MarkPrice apd.Decimal `json:"mark_price"`
	// IndexPrice is the current index price.
	IndexPrice apd.Decimal `json:"index_price"`
	// Rate is the last funding rate.
	Rate apd.Decimal `json:"rate"`
	// NextFundingTime is when the next funding settlement occurs.
	NextFundingTime time.Time `json:"next_funding_time"`
}

// OpenInterest represents the outstanding contract volume of a perpetual market.
type OpenInterest struct {
	// Symbol is the unified trading pair.
	Symbol string `json:"symbol"`
	// Amount is the open interest in contracts.
	Amount apd.Decimal `json:"amount"`
	// Timestamp is when this value was sampled.
	Timestamp time.Time `json:"timestamp"`
}
