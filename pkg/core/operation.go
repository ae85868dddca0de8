package core

// Operation represents a type of action that can be performed on an exchange.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpGetMarkets retrieves the market catalog for a market type.
	OpGetMarkets Operation = iota
	// OpGetServerTime retrieves the exchange server timestamp.
	OpGetServerTime
	// OpGetTicker retrieves current market ticker data for a symbol.
	OpGetTicker
	// OpGetOrderBook retrieves the current order book depth.
	OpGetOrderBook
	// OpGetTrades retrieves recent public trades for a symbol.
	OpGetTrades
	// OpGetKlines retrieves candlestick/OHLCV data.
	OpGetKlines
	// OpGetFundingRate retrieves the funding rate of a perpetual market.
	OpGetFundingRate
	// OpGetOpenInterest retrieves the open interest of a perpetual market.
	OpGetOpenInterest
)

var operationNames = [...]string{
	"GET_MARKETS",
	"GET_SERVER_TIME",
	"GET_TICKER",
	"GET_ORDER_BOOK",
	"GET_TRADES",
	"GET_KLINES",
	"GET_FUNDING_RATE",
	"GET_OPEN_INTEREST",
}

// String returns the string representation of the operation.
func (o Operation) String() string {
	if o < 0 || int(o) >= len(operationNames) {
		return "UNKNOWN"
	}
	return operationNames[o]
}
