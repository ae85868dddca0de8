package exchange

import (
	"context"
	"time"

	"nakula/pkg/core"
)

// Exchange defines the unified market-data interface for cryptocurrency
// exchange adapters. Implementations normalize venue-specific payloads into
// the canonical core types.
type Exchange interface {
	Name() string

	// LoadMarkets fetches and caches the market catalog for the configured
	// market type. It must be called before symbol-resolving operations.
	LoadMarkets(ctx context.Context, opts ...Option) ([]core.Market, error)
	// Market resolves a unified symbol against the loaded catalog.
	Market(symbol string) (*core.Market, error)

	FetchMarkets(ctx context.Context, opts ...Option) ([]core.Market, error)
	GetServerTime(ctx context.Context) (time.Time, error)
	GetTicker(ctx context.Context, symbol string, opts ...Option) (*core.Ticker, error)
	GetOrderBook(ctx context.Context, symbol string, opts ...Option) (*core.OrderBook, error)
	GetTrades(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)
	GetKlines(ctx context.Context, symbol, timeframe string, opts ...Option) ([]core.Candle, error)
	GetFundingRate(ctx context.Context, symbol string) (*core.FundingRate, error)
	GetOpenInterest(ctx context.Context, symbol string) (*core.OpenInterest, error)

	Close() error
}
