package bingx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	internalhttp "nakula/internal/http"
	"nakula/pkg/core"
)

func TestSign_PublicSortedQuery(t *testing.T) {
	p := NewProtocol()

	req := core.NewRequest(http.MethodGet, "market/depth").SetGroup(groupSpot)
	req.SetQuery("symbol", "BTC-USDT")
	req.SetQuery("limit", 5)

	require.NoError(t, p.Sign(req, nil))

	// parameters sorted ascending by key, no credential header
	assert.Equal(t, "https://open-api.bingx.com/openApi/spot/v1/market/depth?limit=5&symbol=BTC-USDT", req.URL)
	assert.NotContains(t, req.Headers, "X-BX-APIKEY")
}

func TestSign_NamespaceBaseURLs(t *testing.T) {
	p := NewProtocol()

	tests := []struct {
		group string
		want  string
	}{
		{groupSpot, "https://open-api.bingx.com/openApi/spot/v1/common/symbols"},
		{groupSwap, "https://open-api.bingx.com/openApi/swap/v2/common/symbols"},
		{groupContract, "https://open-api.bingx.com/openApi/contract/v1/common/symbols"},
	}

	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			req := core.NewRequest(http.MethodGet, "common/symbols").SetGroup(tt.group)
			require.NoError(t, p.Sign(req, nil))
			assert.Equal(t, tt.want, req.URL)
		})
	}
}

func TestSign_UnknownGroup(t *testing.T) {
	p := NewProtocol()

	req := core.NewRequest(http.MethodGet, "quote/klines").SetGroup("margin")
	assert.Error(t, p.Sign(req, nil))
}

func TestSign_PrivateWithoutCredentials(t *testing.T) {
	p := NewProtocol()

	tests := []struct {
		name  string
		creds *core.Credentials
	}{
		{"nil", nil},
		{"missing secret", &core.Credentials{APIKey: "key"}},
		{"missing key", &core.Credentials{SecretKey: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := core.NewRequest(http.MethodGet, "quote/klines").
				SetGroup(groupSwap).
				SetAccess(core.AccessPrivate)

			err := p.Sign(req, tt.creds)
			require.Error(t, err)
			assert.True(t, core.IsAuthenticationError(err))
			assert.True(t, core.IsErrorCode(err, core.ErrCodeNoCredentials))
			// rejected before any URL construction
			assert.Empty(t, req.URL)
		})
	}
}

func TestSign_PrivateAttachesAPIKeyHeader(t *testing.T) {
	p := NewProtocol()

	req := core.NewRequest(http.MethodGet, "quote/klines").
		SetGroup(groupSwap).
		SetAccess(core.AccessPrivate)

	require.NoError(t, p.Sign(req, &core.Credentials{APIKey: "key", SecretKey: "secret"}))
	assert.Equal(t, "key", req.Headers["X-BX-APIKEY"])
	assert.NotEmpty(t, req.URL)
}

func TestSign_PathPlaceholders(t *testing.T) {
	p := NewProtocol()

	req := core.NewRequest(http.MethodGet, "market/depth/{symbol}").SetGroup(groupSpot)
	req.SetQuery("symbol", "BTC-USDT")
	req.SetQuery("limit", "10")

	require.NoError(t, p.Sign(req, nil))

	// the consumed placeholder param is removed from the query
	assert.Equal(t, "https://open-api.bingx.com/openApi/spot/v1/market/depth/BTC-USDT?limit=10", req.URL)
	assert.NotContains(t, req.Query, "symbol")
}

func TestBuildRequest_Markets(t *testing.T) {
	p := NewProtocol()

	spot, err := p.BuildRequest(context.Background(), core.OpGetMarkets,
		core.Params{"marketType": core.MarketTypeSpot})
	require.NoError(t, err)
	assert.Equal(t, "common/symbols", spot.Path)
	assert.Equal(t, groupSpot, spot.Group)

	swap, err := p.BuildRequest(context.Background(), core.OpGetMarkets,
		core.Params{"marketType": core.MarketTypeSwap})
	require.NoError(t, err)
	assert.Equal(t, "quote/contracts", swap.Path)
	assert.Equal(t, groupSwap, swap.Group)
}

func TestBuildRequest_MarketsRequiresMarketType(t *testing.T) {
	p := NewProtocol()

	_, err := p.BuildRequest(context.Background(), core.OpGetMarkets, core.Params{})
	assert.Error(t, err)
}

func TestBuildRequest_Klines(t *testing.T) {
	p := NewProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpGetKlines, core.Params{
		"symbol":    "BTC-USDT",
		"interval":  "1h",
		"startTime": "1666584000000",
	})
	require.NoError(t, err)

	assert.Equal(t, "quote/klines", req.Path)
	assert.Equal(t, groupSwap, req.Group)
	assert.Equal(t, "BTC-USDT", req.Query["symbol"])
	assert.Equal(t, "1h", req.Query["interval"])
	assert.Equal(t, "1666584000000", req.Query["startTime"])
}

func TestBuildRequest_KlinesRequiresSymbolAndInterval(t *testing.T) {
	p := NewProtocol()

	_, err := p.BuildRequest(context.Background(), core.OpGetKlines, core.Params{"interval": "1h"})
	assert.Error(t, err)

	_, err = p.BuildRequest(context.Background(), core.OpGetKlines, core.Params{"symbol": "BTC-USDT"})
	assert.Error(t, err)
}

func TestBuildRequest_DepthRoutesByMarketType(t *testing.T) {
	p := NewProtocol()

	swap, err := p.BuildRequest(context.Background(), core.OpGetOrderBook,
		core.Params{"symbol": "BTC-USDT"})
	require.NoError(t, err)
	assert.Equal(t, "quote/depth", swap.Path)
	assert.Equal(t, groupSwap, swap.Group)

	spot, err := p.BuildRequest(context.Background(), core.OpGetOrderBook,
		core.Params{"symbol": "BTC-USDT", "marketType": core.MarketTypeSpot})
	require.NoError(t, err)
	assert.Equal(t, "market/depth", spot.Path)
	assert.Equal(t, groupSpot, spot.Group)
	assert.NotContains(t, spot.Query, "marketType")
}

func TestBuildRequest_TradesRoutesByMarketType(t *testing.T) {
	p := NewProtocol()

	swap, err := p.BuildRequest(context.Background(), core.OpGetTrades,
		core.Params{"symbol": "BTC-USDT"})
	require.NoError(t, err)
	assert.Equal(t, "quote/trades", swap.Path)

	spot, err := p.BuildRequest(context.Background(), core.OpGetTrades,
		core.Params{"symbol": "BTC-USDT", "marketType": core.MarketTypeSpot})
	require.NoError(t, err)
	assert.Equal(t, "market/trades", spot.Path)
}

func TestBuildRequest_UnsupportedOperation(t *testing.T) {
	p := NewProtocol()

	_, err := p.BuildRequest(context.Background(), core.Operation(255), core.Params{})
	assert.Error(t, err)
}

// fetchResponse replays a canned body through the real transport so
// ParseResponse sees a genuine response value.
func fetchResponse(t *testing.T, status int, body string) *resty.Response {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := internalhttp.NewClient(&internalhttp.Config{
		Timeout: 5 * time.Second,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	return resp
}

func TestParseResponse_ErrorEnvelope(t *testing.T) {
	p := NewProtocol()

	resp := fetchResponse(t, http.StatusOK, `{"code":100413,"msg":"Incorrect apiKey","data":{}}`)
	_, err := p.ParseResponse(core.OpGetKlines, resp)
	require.Error(t, err)

	assert.True(t, core.IsAuthenticationError(err))

	var xerr *core.ExchangeError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, "100413", xerr.Code)
	assert.Equal(t, "Incorrect apiKey", xerr.Message)
}

func TestParseResponse_UnknownCodeFallsBackToStatus(t *testing.T) {
	p := NewProtocol()

	resp := fetchResponse(t, http.StatusTooManyRequests, `{"code":999999,"msg":"slow down"}`)
	_, err := p.ParseResponse(core.OpGetKlines, resp)
	require.Error(t, err)
	assert.True(t, core.IsRateLimitError(err))
}

func TestParseResponse_HTTPErrorWithoutEnvelope(t *testing.T) {
	p := NewProtocol()

	resp := fetchResponse(t, http.StatusBadGateway, `upstream unavailable`)
	_, err := p.ParseResponse(core.OpGetKlines, resp)
	require.Error(t, err)

	var xerr *core.ExchangeError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, core.ErrorTypeServerError, xerr.Type)
	assert.Equal(t, http.StatusBadGateway, xerr.StatusCode)
}

func TestParseResponse_SpotMarketsNestedUnderSymbols(t *testing.T) {
	p := NewProtocol()

	body := `{"code":0,"msg":"","data":{"symbols":[
		{"symbol":"BTC-USDT","status":1,"pricePrecision":2,"quantityPrecision":6},
		{"symbol":"ETH-USDT","status":1,"pricePrecision":2,"quantityPrecision":4}
	]}}`
	resp := fetchResponse(t, http.StatusOK, body)

	result, err := p.ParseResponse(core.OpGetMarkets, resp)
	require.NoError(t, err)

	markets, ok := result.([]core.Market)
	require.True(t, ok)
	require.Len(t, markets, 2)
	assert.Equal(t, "BTC/USDT", markets[0].Symbol)
	assert.True(t, markets[0].Spot)
}

func TestParseResponse_SwapMarketsBareArray(t *testing.T) {
	p := NewProtocol()

	body := `{"code":0,"msg":"","data":[
		{"symbol":"BTC-USDT","status":1,"quantityPrecision":4,"currency":"USDT","tradeMinLimit":1}
	]}`
	resp := fetchResponse(t, http.StatusOK, body)

	result, err := p.ParseResponse(core.OpGetMarkets, resp)
	require.NoError(t, err)

	markets, ok := result.([]core.Market)
	require.True(t, ok)
	require.Len(t, markets, 1)
	assert.True(t, markets[0].Swap)
	assert.Equal(t, "USDT", markets[0].Settle)
}

func TestParseResponse_KlinesArray(t *testing.T) {
	p := NewProtocol()

	body := `{"code":0,"data":[
		{"time":1666584000000,"open":"19394.4","high":"19394.4","low":"19368.3","close":"19379.0","volume":"167.44"},
		{"time":1666587600000,"open":"19379.0","high":"19400.0","low":"19370.0","close":"19390.0","volume":"120.00"}
	]}`
	resp := fetchResponse(t, http.StatusOK, body)

	result, err := p.ParseResponse(core.OpGetKlines, resp)
	require.NoError(t, err)

	candles, ok := result.([]core.Candle)
	require.True(t, ok)
	require.Len(t, candles, 2)
	assert.Equal(t, "19394.4", candles[0].Open.String())
}

func TestParseResponse_KlinesStringTimestamps(t *testing.T) {
	p := NewProtocol()

	body := `{"code":0,"data":[
		{"time":"1666584000000","open":"19394.4","high":"19394.4","low":"19368.3","close":"19379.0","volume":"167.44"}
	]}`
	resp := fetchResponse(t, http.StatusOK, body)

	result, err := p.ParseResponse(core.OpGetKlines, resp)
	require.NoError(t, err)

	candles, ok := result.([]core.Candle)
	require.True(t, ok)
	require.Len(t, candles, 1)
	assert.Equal(t, int64(1666584000000), candles[0].Timestamp.UnixMilli())
}

func TestParseResponse_KlinesSingleObjectWrapped(t *testing.T) {
	p := NewProtocol()

	body := `{"code":0,"data":{"time":1666584000000,"open":"19394.4","high":"19394.4","low":"19368.3","close":"19379.0","volume":"167.44"}}`
	resp := fetchResponse(t, http.StatusOK, body)

	result, err := p.ParseResponse(core.OpGetKlines, resp)
	require.NoError(t, err)

	candles, ok := result.([]core.Candle)
	require.True(t, ok)
	require.Len(t, candles, 1)
	assert.Equal(t, int64(1666584000000), candles[0].Timestamp.UnixMilli())
	assert.Equal(t, "167.44", candles[0].Volume.String())
}

func TestParseResponse_ServerTime(t *testing.T) {
	p := NewProtocol()

	resp := fetchResponse(t, http.StatusOK, `{"code":0,"data":{"serverTime":1666584000000}}`)
	result, err := p.ParseResponse(core.OpGetServerTime, resp)
	require.NoError(t, err)

	ts, ok := result.(time.Time)
	require.True(t, ok)
	assert.Equal(t, int64(1666584000000), ts.UnixMilli())
}

func TestRegisterErrorCode(t *testing.T) {
	p := NewProtocol()
	p.RegisterErrorCode("123456", core.ErrorTypeBadSymbol)

	resp := fetchResponse(t, http.StatusOK, `{"code":123456,"msg":"invalid symbol"}`)
	_, err := p.ParseResponse(core.OpGetTicker, resp)
	require.Error(t, err)

	var xerr *core.ExchangeError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, core.ErrorTypeBadSymbol, xerr.Type)
}

func TestErrorTypeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   core.ErrorType
	}{
		{http.StatusUnauthorized, core.ErrorTypeAuthentication},
		{http.StatusForbidden, core.ErrorTypePermission},
		{http.StatusNotFound, core.ErrorTypeNotFound},
		{http.StatusTooManyRequests, core.ErrorTypeRateLimit},
		{http.StatusTeapot, core.ErrorTypeRateLimit},
		{http.StatusInternalServerError, core.ErrorTypeServerError},
		{http.StatusBadRequest, core.ErrorTypeBadRequest},
		{http.StatusOK, core.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errorTypeForStatus(tt.status), "status %d", tt.status)
	}
}

func TestIntervalFor(t *testing.T) {
	assert.Equal(t, "1m", intervalFor("1m"))
	assert.Equal(t, "1D", intervalFor("1d"))
	assert.Equal(t, "1W", intervalFor("1w"))
	assert.Equal(t, "1M", intervalFor("1M"))
	// unmapped tokens pass through verbatim
	assert.Equal(t, "42x", intervalFor("42x"))
}

func TestSupportedOperations(t *testing.T) {
	p := NewProtocol()
	ops := p.SupportedOperations()

	assert.Contains(t, ops, core.OpGetMarkets)
	assert.Contains(t, ops, core.OpGetKlines)
	assert.Contains(t, ops, core.OpGetServerTime)
	assert.Len(t, ops, 8)
}
