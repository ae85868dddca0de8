package bingx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"nakula/pkg/core"
)

// Protocol implements the core.Protocol interface for the BingX exchange.
// It provides request building, URL signing, response parsing, and error
// classification for the three BingX API namespaces.
type Protocol struct {
	endpoints  endpointTable
	errorCodes map[string]core.ErrorType
}

var _ core.Protocol = (*Protocol)(nil)

// NewProtocol creates a new BingX protocol instance. The endpoint and error
// tables are built once here and read-only afterward.
func NewProtocol() *Protocol {
	return &Protocol{
		endpoints:  newEndpointTable(),
		errorCodes: defaultErrorCodes(),
	}
}

// Name returns the protocol identifier "bingx".
func (p *Protocol) Name() string {
	return "bingx"
}

// SupportedOperations returns the list of operations supported by this protocol.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpGetMarkets,
		core.OpGetServerTime,
		core.OpGetTicker,
		core.OpGetOrderBook,
		core.OpGetTrades,
		core.OpGetKlines,
		core.OpGetFundingRate,
		core.OpGetOpenInterest,
	}
}

// RateLimits returns the rate limit configuration for the BingX API,
// 150 requests per 5 seconds.
func (p *Protocol) RateLimits() core.RateLimitConfig {
	return core.RateLimitConfig{
		RequestsPerSecond: 30,
		Burst:             150,
	}
}

// BuildRequest constructs an exchange-specific HTTP request for the given
// operation. It validates required parameters and routes the request to the
// right API namespace.
func (p *Protocol) BuildRequest(ctx context.Context, op core.Operation, params core.Params) (*core.Request, error) {
	switch op {
	case core.OpGetMarkets:
		return p.buildGetMarketsRequest(params)
	case core.OpGetServerTime:
		return core.NewRequest(http.MethodGet, "server/time").SetGroup(groupSwap), nil
	case core.OpGetTicker:
		return p.buildSwapQuoteRequest("quote/ticker", params)
	case core.OpGetOrderBook:
		return p.buildDepthRequest(params)
	case core.OpGetTrades:
		return p.buildTradesRequest(params)
	case core.OpGetKlines:
		return p.buildGetKlinesRequest(params)
	case core.OpGetFundingRate:
		return p.buildSwapQuoteRequest("quote/premiumIndex", params)
	case core.OpGetOpenInterest:
		return p.buildSwapQuoteRequest("quote/openInterest", params)
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

// Sign finalizes a request built by BuildRequest: it resolves the namespace
// base URL, substitutes path placeholders from the parameter set, sorts the
// remaining parameters into a deterministic query string, and attaches the
// API key header for private access.
//
// BingX authenticates this surface with the static X-BX-APIKEY header alone;
// no HMAC signature, timestamp, or nonce is computed.
func (p *Protocol) Sign(req *core.Request, creds *core.Credentials) error {
	group, ok := p.endpoints[req.Group]
	if !ok {
		return fmt.Errorf("unknown api group: %q", req.Group)
	}

	if req.Access == core.AccessPrivate {
		if !creds.Complete() {
			return core.NewExchangeError(p.Name(), core.ErrorTypeAuthentication, 0,
				"apiKey and secret are required for private endpoints").
				WithCode(core.ErrCodeNoCredentials)
		}
		req.SetHeader("X-BX-APIKEY", creds.APIKey)
	}

	path, remaining := implodePath(req.Path, req.Query)
	req.Query = remaining

	var sb strings.Builder
	sb.WriteString(group.BaseURL)
	sb.WriteString("/")
	sb.WriteString(group.Version)
	sb.WriteString("/")
	sb.WriteString(path)
	if len(remaining) > 0 {
		sb.WriteString("?")
		sb.WriteString(encodeQuery(remaining))
	}
	req.URL = sb.String()
	return nil
}

// ParseResponse deserializes the HTTP response envelope, classifies error
// envelopes into typed errors, and normalizes the payload to canonical types.
func (p *Protocol) ParseResponse(op core.Operation, resp *resty.Response) (any, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	var env envelope
	if err := sonic.Unmarshal(resp.Bytes(), &env); err != nil {
		if resp.StatusCode() >= 400 {
			return nil, core.NewExchangeError(p.Name(), errorTypeForStatus(resp.StatusCode()),
				resp.StatusCode(), fmt.Sprintf("HTTP error: %s", resp.Status()))
		}
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	if err := p.classify(resp.StatusCode(), resp.Status(), &env); err != nil {
		return nil, err
	}

	n := NewNormalizer()
	data := bytes.TrimSpace(env.Data)

	switch op {
	case core.OpGetMarkets:
		return p.parseMarkets(n, data)

	case core.OpGetServerTime:
		var body struct {
			ServerTime int64 `json:"serverTime"`
		}
		if err := sonic.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("unmarshal server time: %w", err)
		}
		return time.UnixMilli(body.ServerTime), nil

	case core.OpGetTicker:
		var rec tickerRecord
		if err := sonic.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal ticker: %w", err)
		}
		return n.ParseTicker(&rec), nil

	case core.OpGetOrderBook:
		var rec depthRecord
		if err := sonic.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal depth: %w", err)
		}
		return n.ParseOrderBook(&rec, ""), nil

	case core.OpGetTrades:
		var recs []tradeRecord
		if err := sonic.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("unmarshal trades: %w", err)
		}
		return n.ParseTrades(recs, ""), nil

	case core.OpGetKlines:
		rows, err := decodeKlineRows(data)
		if err != nil {
			return nil, err
		}
		return n.ParseCandles(rows), nil

	case core.OpGetFundingRate:
		var rec premiumIndexRecord
		if err := sonic.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal premium index: %w", err)
		}
		return n.ParseFundingRate(&rec), nil

	case core.OpGetOpenInterest:
		var rec openInterestRecord
		if err := sonic.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal open interest: %w", err)
		}
		return n.ParseOpenInterest(&rec), nil

	default:
		var result any
		if err := sonic.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		return result, nil
	}
}

// RegisterErrorCode extends the error classification table with a
// venue-specific code. Intended for codes confirmed against upstream
// documentation after this table was written.
func (p *Protocol) RegisterErrorCode(code string, t core.ErrorType) {
	p.errorCodes[code] = t
}

// envelope is the JSON wrapper surrounding every BingX response payload.
type envelope struct {
	Code int64           `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// classify maps a non-success envelope or HTTP status to a typed error.
// A zero envelope code with a 2xx status is not an error.
func (p *Protocol) classify(statusCode int, status string, env *envelope) error {
	if env.Code != 0 {
		code := strconv.FormatInt(env.Code, 10)
		t, ok := p.errorCodes[code]
		if !ok {
			t = errorTypeForStatus(statusCode)
		}
		return core.NewExchangeErrorWithCode(p.Name(), t, statusCode, code, env.Msg)
	}
	if statusCode >= 400 {
		return core.NewExchangeError(p.Name(), errorTypeForStatus(statusCode), statusCode,
			fmt.Sprintf("HTTP error: %s", status))
	}
	return nil
}

// defaultErrorCodes maps documented BingX error codes to the shared taxonomy.
func defaultErrorCodes() map[string]core.ErrorType {
	return map[string]core.ErrorType{
		"100001": core.ErrorTypeAuthentication, // signature verification failed
		"100412": core.ErrorTypeAuthentication, // null signature
		"100413": core.ErrorTypeAuthentication, // incorrect api key
		"100414": core.ErrorTypePermission,     // ip not in whitelist
		"100410": core.ErrorTypeRateLimit,      // rate limited
		"100421": core.ErrorTypeBadRequest,     // timestamp out of recv window
		"100400": core.ErrorTypeBadRequest,
		"100440": core.ErrorTypeBadRequest, // price deviates from market
		"100204": core.ErrorTypeBadSymbol, // no data for symbol
		"80001":  core.ErrorTypeBadRequest,
		"80014":  core.ErrorTypeBadRequest,
		"80016":  core.ErrorTypeOrderNotFound,
		"80017":  core.ErrorTypeOrderNotFound,
		"100202": core.ErrorTypeInsufficientFunds,
		"101204": core.ErrorTypeInsufficientFunds,
		"100500": core.ErrorTypeServerError,
		"100503": core.ErrorTypeServerError,
	}
}

func errorTypeForStatus(statusCode int) core.ErrorType {
	switch {
	case statusCode == http.StatusUnauthorized:
		return core.ErrorTypeAuthentication
	case statusCode == http.StatusForbidden:
		return core.ErrorTypePermission
	case statusCode == http.StatusNotFound:
		return core.ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests || statusCode == http.StatusTeapot:
		return core.ErrorTypeRateLimit
	case statusCode >= 500:
		return core.ErrorTypeServerError
	case statusCode >= 400:
		return core.ErrorTypeBadRequest
	default:
		return core.ErrorTypeUnknown
	}
}

func (p *Protocol) parseMarkets(n *Normalizer, data []byte) ([]core.Market, error) {
	var list []json.RawMessage

	// The spot namespace nests the list under data.symbols; the swap
	// namespace returns data as a bare array.
	if len(data) > 0 && data[0] == '{' {
		var wrapper struct {
			Symbols []json.RawMessage `json:"symbols"`
		}
		if err := sonic.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("unmarshal symbols: %w", err)
		}
		list = wrapper.Symbols
	} else {
		if err := sonic.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("unmarshal contracts: %w", err)
		}
	}

	markets := make([]core.Market, 0, len(list))
	for _, raw := range list {
		market, err := n.ParseMarket(raw)
		if err != nil {
			return nil, fmt.Errorf("parse market: %w", err)
		}
		markets = append(markets, *market)
	}
	return markets, nil
}

// decodeKlineRows decodes the quote/klines payload. The endpoint usually
// returns an array but has been observed returning a single bare object; that
// shape is wrapped into a one-element sequence.
func decodeKlineRows(data []byte) ([]klineRecord, error) {
	if len(data) > 0 && data[0] == '{' {
		var row klineRecord
		if err := sonic.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("unmarshal kline: %w", err)
		}
		return []klineRecord{row}, nil
	}
	var rows []klineRecord
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal klines: %w", err)
	}
	return rows, nil
}

func (p *Protocol) buildGetMarketsRequest(params core.Params) (*core.Request, error) {
	mt, ok := params["marketType"].(core.MarketType)
	if !ok {
		return nil, fmt.Errorf("missing required parameter: marketType")
	}

	extra := extraParams(params, "marketType")
	switch mt {
	case core.MarketTypeSpot:
		return core.NewRequest(http.MethodGet, "common/symbols").
			SetGroup(groupSpot).
			SetQueryParams(extra), nil
	case core.MarketTypeSwap:
		return core.NewRequest(http.MethodGet, "quote/contracts").
			SetGroup(groupSwap).
			SetQueryParams(extra), nil
	default:
		return nil, fmt.Errorf("unsupported market type: %v", mt)
	}
}

func (p *Protocol) buildSwapQuoteRequest(path string, params core.Params) (*core.Request, error) {
	symbol, err := requiredString(params, "symbol")
	if err != nil {
		return nil, err
	}

	req := core.NewRequest(http.MethodGet, path).SetGroup(groupSwap)
	req.SetQuery("symbol", symbol)
	req.SetQueryParams(extraParams(params, "symbol"))
	return req, nil
}

func (p *Protocol) buildDepthRequest(params core.Params) (*core.Request, error) {
	symbol, err := requiredString(params, "symbol")
	if err != nil {
		return nil, err
	}

	path, group := "quote/depth", groupSwap
	if mt, ok := params["marketType"].(core.MarketType); ok && mt == core.MarketTypeSpot {
		path, group = "market/depth", groupSpot
	}

	req := core.NewRequest(http.MethodGet, path).SetGroup(group)
	req.SetQuery("symbol", symbol)
	req.SetQueryParams(extraParams(params, "symbol", "marketType"))
	return req, nil
}

func (p *Protocol) buildTradesRequest(params core.Params) (*core.Request, error) {
	symbol, err := requiredString(params, "symbol")
	if err != nil {
		return nil, err
	}

	path, group := "quote/trades", groupSwap
	if mt, ok := params["marketType"].(core.MarketType); ok && mt == core.MarketTypeSpot {
		path, group = "market/trades", groupSpot
	}

	req := core.NewRequest(http.MethodGet, path).SetGroup(group)
	req.SetQuery("symbol", symbol)
	req.SetQueryParams(extraParams(params, "symbol", "marketType"))
	return req, nil
}

func (p *Protocol) buildGetKlinesRequest(params core.Params) (*core.Request, error) {
	symbol, err := requiredString(params, "symbol")
	if err != nil {
		return nil, err
	}
	interval, err := requiredString(params, "interval")
	if err != nil {
		return nil, err
	}

	req := core.NewRequest(http.MethodGet, "quote/klines").SetGroup(groupSwap)
	req.SetQuery("symbol", symbol)
	req.SetQuery("interval", interval)
	req.SetQueryParams(extraParams(params, "symbol", "interval"))
	return req, nil
}

// implodePath substitutes {placeholder} segments in a path template from the
// parameter set and removes the consumed entries.
var pathParamPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

func implodePath(path string, params core.Params) (string, core.Params) {
	remaining := make(core.Params, len(params))
	maps.Copy(remaining, params)

	imploded := pathParamPattern.ReplaceAllStringFunc(path, func(match string) string {
		key := match[1 : len(match)-1]
		if v, ok := remaining[key]; ok {
			delete(remaining, key)
			return fmt.Sprint(v)
		}
		return match
	})
	return imploded, remaining
}

// encodeQuery renders parameters as a URL-encoded query string sorted by key,
// so identical inputs always produce identical URLs.
func encodeQuery(params core.Params) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, fmt.Sprint(v))
	}
	return values.Encode()
}

func requiredString(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}
	if str == "" {
		return "", fmt.Errorf("parameter %s cannot be empty", key)
	}
	return str, nil
}

// extraParams copies params minus the named keys, so venue-specific
// passthrough parameters survive into the query set.
func extraParams(params core.Params, consumed ...string) core.Params {
	extra := make(core.Params, len(params))
	maps.Copy(extra, params)
	for _, key := range consumed {
		delete(extra, key)
	}
	return extra
}
