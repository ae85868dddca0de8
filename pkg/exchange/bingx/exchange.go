package bingx

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"nakula/internal/circuitbreaker"
	internalhttp "nakula/internal/http"
	"nakula/internal/keyring"
	"nakula/internal/ratelimit"
	"nakula/pkg/core"
	"nakula/pkg/exchange"
)

// BingX is the BingX exchange adapter. It wires the protocol layer to the
// HTTP transport, rate limiter, circuit breaker, and optional key ring, and
// maintains the unified market catalog cache.
type BingX struct {
	config   *core.Config
	protocol *Protocol
	client   *internalhttp.Client
	limiter  *ratelimit.Limiter
	breaker  *circuitbreaker.Breaker
	keys     *keyring.KeyRing
	logger   zerolog.Logger

	marketsMu       sync.RWMutex
	marketsBySymbol map[string]*core.Market
	marketsByID     map[string]*core.Market

	closed atomic.Bool
}

var _ exchange.Exchange = (*BingX)(nil)

// Option customizes a BingX instance at construction time.
type Option func(*BingX)

// WithKeyRing installs a rotating key ring used for private requests instead
// of the single credential pair from the config.
func WithKeyRing(keys *keyring.KeyRing) Option {
	return func(e *BingX) {
		e.keys = keys
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *BingX) {
		e.logger = logger
	}
}

// New creates a BingX adapter from the given configuration.
func New(config *core.Config, opts ...Option) (*BingX, error) {
	if config == nil {
		config = core.DefaultConfig("bingx")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &BingX{
		config:   config,
		protocol: NewProtocol(),
		limiter:  ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod),
		logger:   zerolog.Nop(),
	}

	if config.CircuitBreakerEnabled {
		e.breaker = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
		})
	}

	for _, opt := range opts {
		opt(e)
	}

	if level, err := zerolog.ParseLevel(config.LogLevel); err == nil && config.LogLevel != "" {
		e.logger = e.logger.Level(level)
	}

	client, err := internalhttp.NewClient(&internalhttp.Config{
		Timeout:      config.Timeout,
		MaxRetries:   config.MaxRetries,
		RetryWaitMin: config.RetryWaitMin,
		RetryWaitMax: config.RetryWaitMax,
		Logger:       e.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	e.client = client

	return e, nil
}

// Register constructs a BingX adapter and adds it to the container under its
// protocol name.
func Register(c *exchange.Container, config *core.Config, opts ...Option) (*BingX, error) {
	e, err := New(config, opts...)
	if err != nil {
		return nil, err
	}
	c.Register(e.Name(), e)
	return e, nil
}

// Name returns the exchange identifier.
func (e *BingX) Name() string {
	return e.protocol.Name()
}

// Close releases the underlying transport. Subsequent calls return
// core.ErrClientClosed.
func (e *BingX) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return core.ErrClientClosed
	}
	return e.client.Close()
}

// LoadMarkets fetches the market catalog for the resolved market type and
// caches it for symbol resolution. Cached entries from a previous load for
// the other market type are kept, so loading spot then swap yields a merged
// catalog.
func (e *BingX) LoadMarkets(ctx context.Context, opts ...exchange.Option) ([]core.Market, error) {
	markets, err := e.FetchMarkets(ctx, opts...)
	if err != nil {
		return nil, err
	}

	e.marketsMu.Lock()
	if e.marketsBySymbol == nil {
		e.marketsBySymbol = make(map[string]*core.Market, len(markets))
		e.marketsByID = make(map[string]*core.Market, len(markets))
	}
	for i := range markets {
		m := &markets[i]
		e.marketsBySymbol[m.Symbol] = m
		e.marketsByID[m.ID] = m
	}
	e.marketsMu.Unlock()

	e.logger.Info().Int("count", len(markets)).Msg("markets loaded")
	return markets, nil
}

// Market resolves a unified symbol (or an exchange-native id) against the
// loaded catalog.
func (e *BingX) Market(symbol string) (*core.Market, error) {
	e.marketsMu.RLock()
	defer e.marketsMu.RUnlock()

	if e.marketsBySymbol == nil {
		return nil, core.ErrMarketsNotLoaded
	}
	if m, ok := e.marketsBySymbol[symbol]; ok {
		return m, nil
	}
	if m, ok := e.marketsByID[symbol]; ok {
		return m, nil
	}
	return nil, core.NewExchangeError(e.Name(), core.ErrorTypeBadSymbol, 0,
		fmt.Sprintf("unknown symbol: %s", symbol))
}

// FetchMarkets retrieves the market catalog for the resolved market type
// without touching the cache.
func (e *BingX) FetchMarkets(ctx context.Context, opts ...exchange.Option) ([]core.Market, error) {
	o := exchange.ApplyOptions(opts...)
	mt := o.ResolveMarketType(e.config.MarketType)

	switch mt {
	case core.MarketTypeSpot, core.MarketTypeSwap:
	default:
		return nil, core.NewNotSupportedError(e.Name(),
			fmt.Sprintf("market type %v is not supported", mt))
	}

	params := core.Params{"marketType": mt}
	mergeParams(params, o.Params)

	result, err := e.doRequest(ctx, core.OpGetMarkets, params)
	if err != nil {
		return nil, err
	}
	markets, ok := result.([]core.Market)
	if !ok {
		return nil, fmt.Errorf("unexpected markets payload type %T", result)
	}
	return markets, nil
}

// FetchSpotMarkets retrieves the spot market catalog.
func (e *BingX) FetchSpotMarkets(ctx context.Context) ([]core.Market, error) {
	return e.FetchMarkets(ctx, exchange.WithMarketType(core.MarketTypeSpot))
}

// FetchSwapMarkets retrieves the perpetual swap market catalog.
func (e *BingX) FetchSwapMarkets(ctx context.Context) ([]core.Market, error) {
	return e.FetchMarkets(ctx, exchange.WithMarketType(core.MarketTypeSwap))
}

// GetServerTime returns the exchange's clock.
func (e *BingX) GetServerTime(ctx context.Context) (time.Time, error) {
	result, err := e.doRequest(ctx, core.OpGetServerTime, core.Params{})
	if err != nil {
		return time.Time{}, err
	}
	ts, ok := result.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected server time payload type %T", result)
	}
	return ts, nil
}

// GetTicker returns the 24h ticker for a swap symbol.
func (e *BingX) GetTicker(ctx context.Context, symbol string, opts ...exchange.Option) (*core.Ticker, error) {
	market, err := e.swapMarket(symbol, "tickers")
	if err != nil {
		return nil, err
	}

	o := exchange.ApplyOptions(opts...)
	params := core.Params{"symbol": market.ID}
	mergeParams(params, o.Params)

	result, err := e.doRequest(ctx, core.OpGetTicker, params)
	if err != nil {
		return nil, err
	}
	ticker, ok := result.(*core.Ticker)
	if !ok {
		return nil, fmt.Errorf("unexpected ticker payload type %T", result)
	}
	ticker.Symbol = market.Symbol
	return ticker, nil
}

// GetOrderBook returns the order book for a symbol. Spot and swap markets
// route to their respective namespaces.
func (e *BingX) GetOrderBook(ctx context.Context, symbol string, opts ...exchange.Option) (*core.OrderBook, error) {
	market, err := e.Market(symbol)
	if err != nil {
		return nil, err
	}

	o := exchange.ApplyOptions(opts...)
	params := core.Params{"symbol": market.ID, "marketType": market.Type}
	if o.Limit > 0 {
		params["limit"] = strconv.Itoa(o.Limit)
	}
	mergeParams(params, o.Params)

	result, err := e.doRequest(ctx, core.OpGetOrderBook, params)
	if err != nil {
		return nil, err
	}
	book, ok := result.(*core.OrderBook)
	if !ok {
		return nil, fmt.Errorf("unexpected order book payload type %T", result)
	}
	book.Symbol = market.Symbol
	return book, nil
}

// GetTrades returns recent public trades for a symbol.
func (e *BingX) GetTrades(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	market, err := e.Market(symbol)
	if err != nil {
		return nil, err
	}

	o := exchange.ApplyOptions(opts...)
	params := core.Params{"symbol": market.ID, "marketType": market.Type}
	if o.Limit > 0 {
		params["limit"] = strconv.Itoa(o.Limit)
	}
	mergeParams(params, o.Params)

	result, err := e.doRequest(ctx, core.OpGetTrades, params)
	if err != nil {
		return nil, err
	}
	trades, ok := result.([]core.Trade)
	if !ok {
		return nil, fmt.Errorf("unexpected trades payload type %T", result)
	}
	for i := range trades {
		trades[i].Symbol = market.Symbol
	}
	return trades, nil
}

// GetKlines returns OHLCV candles for a swap symbol, ascending by open time.
// The timeframe is mapped through the interval table; unknown timeframes are
// passed through verbatim so new exchange intervals work without a release.
func (e *BingX) GetKlines(ctx context.Context, symbol, timeframe string, opts ...exchange.Option) ([]core.Candle, error) {
	market, err := e.swapMarket(symbol, "klines")
	if err != nil {
		return nil, err
	}

	o := exchange.ApplyOptions(opts...)
	params := core.Params{
		"symbol":   market.ID,
		"interval": intervalFor(timeframe),
	}
	if !o.Since.IsZero() {
		params["startTime"] = strconv.FormatInt(o.Since.UnixMilli(), 10)
	}
	if o.Limit > 0 {
		params["limit"] = strconv.Itoa(o.Limit)
	}
	mergeParams(params, o.Params)

	result, err := e.doRequest(ctx, core.OpGetKlines, params)
	if err != nil {
		return nil, err
	}
	candles, ok := result.([]core.Candle)
	if !ok {
		return nil, fmt.Errorf("unexpected klines payload type %T", result)
	}
	return core.FilterCandles(candles, o.Since, o.Limit), nil
}

// GetFundingRate returns the current funding data for a swap symbol.
func (e *BingX) GetFundingRate(ctx context.Context, symbol string) (*core.FundingRate, error) {
	market, err := e.swapMarket(symbol, "funding rates")
	if err != nil {
		return nil, err
	}

	result, err := e.doRequest(ctx, core.OpGetFundingRate, core.Params{"symbol": market.ID})
	if err != nil {
		return nil, err
	}
	fr, ok := result.(*core.FundingRate)
	if !ok {
		return nil, fmt.Errorf("unexpected funding rate payload type %T", result)
	}
	fr.Symbol = market.Symbol
	return fr, nil
}

// GetOpenInterest returns the outstanding contract volume for a swap symbol.
func (e *BingX) GetOpenInterest(ctx context.Context, symbol string) (*core.OpenInterest, error) {
	market, err := e.swapMarket(symbol, "open interest")
	if err != nil {
		return nil, err
	}

	result, err := e.doRequest(ctx, core.OpGetOpenInterest, core.Params{"symbol": market.ID})
	if err != nil {
		return nil, err
	}
	oi, ok := result.(*core.OpenInterest)
	if !ok {
		return nil, fmt.Errorf("unexpected open interest payload type %T", result)
	}
	oi.Symbol = market.Symbol
	return oi, nil
}

// swapMarket resolves a symbol and rejects spot markets before any network
// traffic for operations BingX only serves on the swap namespace.
func (e *BingX) swapMarket(symbol, operation string) (*core.Market, error) {
	market, err := e.Market(symbol)
	if err != nil {
		return nil, err
	}
	if !market.Swap {
		return nil, core.NewNotSupportedError(e.Name(),
			fmt.Sprintf("%s are only available for swap markets, %s is a %s market",
				operation, market.Symbol, market.Type))
	}
	return market, nil
}

// doRequest runs one operation end to end: build, sign, rate limit, circuit
// breaker, transport, parse.
func (e *BingX) doRequest(ctx context.Context, op core.Operation, params core.Params) (any, error) {
	if e.closed.Load() {
		return nil, core.ErrClientClosed
	}

	req, err := e.protocol.BuildRequest(ctx, op, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	creds, err := e.credentialsFor(req.Access)
	if err != nil {
		return nil, err
	}
	if err := e.protocol.Sign(req, creds); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	if err := e.limiter.Wait(ctx, req.Group, req.Weight); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	if e.breaker != nil && !e.breaker.Allow() {
		return nil, core.NewExchangeError(e.Name(), core.ErrorTypeNetwork, 0,
			"circuit breaker open")
	}

	e.logger.Debug().
		Str("op", op.String()).
		Str("method", req.Method).
		Str("url", req.URL).
		Msg("dispatching request")

	var httpOpts []internalhttp.RequestOption
	if len(req.Headers) > 0 {
		httpOpts = append(httpOpts, internalhttp.WithHeaders(req.Headers))
	}
	if req.Body != nil {
		httpOpts = append(httpOpts, internalhttp.WithBody(req.Body))
	}

	resp, err := e.client.Execute(ctx, req.Method, req.URL, httpOpts...)
	if err != nil {
		e.recordOutcome(false, req.Access)
		return nil, core.NewExchangeError(e.Name(), core.ErrorTypeNetwork, 0, err.Error())
	}

	result, err := e.protocol.ParseResponse(op, resp)
	if err != nil {
		e.recordOutcome(core.IsTerminalError(err), req.Access)
		if core.IsAuthenticationError(err) && e.keys != nil {
			e.keys.OnError()
		}
		return nil, err
	}

	e.recordOutcome(true, req.Access)
	if req.Access == core.AccessPrivate && e.keys != nil {
		e.keys.MarkUsed()
	}
	return result, nil
}

// recordOutcome feeds the circuit breaker. Terminal client-side errors count
// as successes for breaker purposes since the venue answered.
func (e *BingX) recordOutcome(success bool, _ core.AccessLevel) {
	if e.breaker != nil {
		e.breaker.Record(success)
	}
}

// credentialsFor selects the credential source for a request: the key ring's
// current key when one is installed, otherwise the config credentials. Public
// requests carry no credentials. Missing credentials surface as the same
// authentication-typed error the signer raises.
func (e *BingX) credentialsFor(access core.AccessLevel) (*core.Credentials, error) {
	if access != core.AccessPrivate {
		return nil, nil
	}
	if e.keys != nil {
		key := e.keys.Current()
		if key == nil {
			return nil, core.NewExchangeError(e.Name(), core.ErrorTypeAuthentication, 0,
				core.ErrNoAPIKey.Error()).WithCode(core.ErrCodeNoAPIKey)
		}
		return &core.Credentials{APIKey: key.Key, SecretKey: key.Secret}, nil
	}
	if e.config.Credentials == nil {
		return nil, core.NewExchangeError(e.Name(), core.ErrorTypeAuthentication, 0,
			core.ErrNoCredentials.Error()).WithCode(core.ErrCodeNoCredentials)
	}
	return e.config.Credentials, nil
}

func mergeParams(dst, src core.Params) {
	for k, v := range src {
		dst[k] = v
	}
}
