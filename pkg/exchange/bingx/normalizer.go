package bingx

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"nakula/pkg/core"
)

// spotMarketRecord is the strict decode target for spot market records.
// The decode succeeds only when the price precision field is present; records
// without it fall back to the swap shape.
type spotMarketRecord struct {
	Symbol            string `json:"symbol"`
	Status            any    `json:"status"`
	PricePrecision    any    `json:"pricePrecision"`
	QuantityPrecision any    `json:"quantityPrecision"`
	TickSize          any    `json:"tickSize"`
	StepSize          any    `json:"stepSize"`
	MinQty            any    `json:"minQty"`
	MaxQty            any    `json:"maxQty"`
	MinNotional       any    `json:"minNotional"`
	MaxNotional       any    `json:"maxNotional"`
	TradeMinLimit     any    `json:"tradeMinLimit"`
}

// swapMarketRecord is the fallback decode target for perpetual contract
// records, which carry no price precision field.
type swapMarketRecord struct {
	ContractID        string `json:"contractId"`
	Symbol            string `json:"symbol"`
	Status            any    `json:"status"`
	Size              any    `json:"size"`
	QuantityPrecision any    `json:"quantityPrecision"`
	FeeRate           any    `json:"feeRate"`
	TradeMinLimit     any    `json:"tradeMinLimit"`
	MinQty            any    `json:"minQty"`
	MaxQty            any    `json:"maxQty"`
	MinNotional       any    `json:"minNotional"`
	MaxNotional       any    `json:"maxNotional"`
	Currency          string `json:"currency"`
	Asset             string `json:"asset"`
}

// klineRecord is a single OHLCV row from swap quote/klines. Every field,
// timestamps included, may arrive as a number or a numeric-looking string.
type klineRecord struct {
	Time   any `json:"time"`
	Open   any `json:"open"`
	High   any `json:"high"`
	Low    any `json:"low"`
	Close  any `json:"close"`
	Volume any `json:"volume"`
}

// tickerRecord is the swap quote/ticker shape.
type tickerRecord struct {
	Symbol      string `json:"symbol"`
	LastPrice   any    `json:"lastPrice"`
	OpenPrice   any    `json:"openPrice"`
	HighPrice   any    `json:"highPrice"`
	LowPrice    any    `json:"lowPrice"`
	Volume      any    `json:"volume"`
	QuoteVolume any    `json:"quoteVolume"`
	CloseTime   any    `json:"closeTime"`
}

// depthRecord covers both spot market/depth and swap quote/depth.
type depthRecord struct {
	Bids [][]any `json:"bids"`
	Asks [][]any `json:"asks"`
	T    any     `json:"T"`
	Ts   any     `json:"ts"`
}

// tradeRecord covers both spot market/trades and swap quote/trades; the two
// namespaces spell the maker flag differently.
type tradeRecord struct {
	ID           any  `json:"id"`
	Time         any  `json:"time"`
	Price        any  `json:"price"`
	Qty          any  `json:"qty"`
	IsBuyerMaker bool `json:"isBuyerMaker"`
	BuyerMaker   bool `json:"buyerMaker"`
}

// premiumIndexRecord is the swap quote/premiumIndex shape.
type premiumIndexRecord struct {
	Symbol          string `json:"symbol"`
	MarkPrice       any    `json:"markPrice"`
	IndexPrice      any    `json:"indexPrice"`
	LastFundingRate any    `json:"lastFundingRate"`
	NextFundingTime any    `json:"nextFundingTime"`
}

// openInterestRecord is the swap quote/openInterest shape.
type openInterestRecord struct {
	Symbol       string `json:"symbol"`
	OpenInterest any    `json:"openInterest"`
	Time         any    `json:"time"`
}

// commonCurrencies overrides exchange currency codes whose unified form
// differs. BingX currently uses unified codes throughout; the table stays as
// the extension point.
var commonCurrencies = map[string]string{}

// Normalizer converts BingX-specific data structures to canonical core types.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer instance.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// ParseMarket converts one raw market record, spot or swap shaped, into a
// canonical Market. The variant is selected by attempting the spot shape
// first: a record decodes as spot only when it carries the price precision
// field, everything else is treated as a perpetual contract. The raw record
// is kept untouched under Info.
func (n *Normalizer) ParseMarket(raw json.RawMessage) (*core.Market, error) {
	var info map[string]any
	if err := sonic.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode market record: %w", err)
	}

	var spot spotMarketRecord
	if err := sonic.Unmarshal(raw, &spot); err != nil {
		return nil, fmt.Errorf("decode market record: %w", err)
	}

	if spot.PricePrecision != nil {
		return n.buildMarket(marketFields{
			id:              spot.Symbol,
			status:          spot.Status,
			marketType:      core.MarketTypeSpot,
			amountPrecision: spot.QuantityPrecision,
			pricePrecision:  spot.PricePrecision,
			minQty:          spot.MinQty,
			maxQty:          spot.MaxQty,
			minNotional:     spot.MinNotional,
			maxNotional:     spot.MaxNotional,
			tradeMinLimit:   spot.TradeMinLimit,
		}, info), nil
	}

	var swap swapMarketRecord
	if err := sonic.Unmarshal(raw, &swap); err != nil {
		return nil, fmt.Errorf("decode market record: %w", err)
	}

	return n.buildMarket(marketFields{
		id:              swap.Symbol,
		status:          swap.Status,
		marketType:      core.MarketTypeSwap,
		amountPrecision: swap.QuantityPrecision,
		minQty:          swap.MinQty,
		maxQty:          swap.MaxQty,
		minNotional:     swap.MinNotional,
		maxNotional:     swap.MaxNotional,
		tradeMinLimit:   swap.TradeMinLimit,
		settle:          swap.Currency,
	}, info), nil
}

// marketFields is the variant-independent field set feeding buildMarket.
type marketFields struct {
	id              string
	status          any
	marketType      core.MarketType
	amountPrecision any
	pricePrecision  any
	minQty          any
	maxQty          any
	minNotional     any
	maxNotional     any
	tradeMinLimit   any
	settle          string
}

func (n *Normalizer) buildMarket(f marketFields, info map[string]any) *core.Market {
	baseID, quoteID := splitID(f.id)
	base := currencyCode(baseID)
	quote := currencyCode(quoteID)
	isSwap := f.marketType == core.MarketTypeSwap

	return &core.Market{
		ID:      f.id,
		Symbol:  base + "/" + quote,
		Base:    base,
		Quote:   quote,
		BaseID:  baseID,
		QuoteID: quoteID,
		Settle:  currencyCode(f.settle),

		Type:     f.marketType,
		Spot:     !isSwap,
		Swap:     isSwap,
		Contract: isSwap,
		Linear:   isSwap,
		Inverse:  false,
		Margin:   false,
		Future:   false,
		Option:   false,

		Active:       asString(f.status) == "1",
		ContractSize: asDecimal(f.tradeMinLimit),
		Precision: core.Precision{
			Amount: asDecimal(f.amountPrecision),
			Price:  asDecimal(f.pricePrecision),
		},
		Limits: core.Limits{
			Amount: core.MinMax{
				Min: asDecimal(f.minQty),
				Max: asDecimal(f.maxQty),
			},
			Cost: core.MinMax{
				Min: asDecimal(f.minNotional),
				Max: asDecimal(f.maxNotional),
			},
		},
		Info: info,
	}
}

// ParseCandle maps one OHLCV row to a canonical Candle, parsing numeric
// fields that may arrive as strings.
func (n *Normalizer) ParseCandle(row *klineRecord) core.Candle {
	candle := core.Candle{
		Timestamp: time.UnixMilli(asInt64(row.Time)),
	}
	setDecimal(&candle.Open, row.Open)
	setDecimal(&candle.High, row.High)
	setDecimal(&candle.Low, row.Low)
	setDecimal(&candle.Close, row.Close)
	setDecimal(&candle.Volume, row.Volume)
	return candle
}

// ParseCandles maps a sequence of OHLCV rows in upstream order.
func (n *Normalizer) ParseCandles(rows []klineRecord) []core.Candle {
	candles := make([]core.Candle, 0, len(rows))
	for i := range rows {
		candles = append(candles, n.ParseCandle(&rows[i]))
	}
	return candles
}

// ParseTicker converts a swap ticker record to a canonical Ticker.
func (n *Normalizer) ParseTicker(rec *tickerRecord) *core.Ticker {
	ticker := &core.Ticker{
		Symbol:    unifySymbol(rec.Symbol),
		Timestamp: time.UnixMilli(asInt64(rec.CloseTime)),
	}
	setDecimal(&ticker.Last, rec.LastPrice)
	setDecimal(&ticker.Open, rec.OpenPrice)
	setDecimal(&ticker.High, rec.HighPrice)
	setDecimal(&ticker.Low, rec.LowPrice)
	setDecimal(&ticker.Volume, rec.Volume)
	setDecimal(&ticker.QuoteVolume, rec.QuoteVolume)
	return ticker
}

// ParseOrderBook converts a depth record to a canonical OrderBook.
func (n *Normalizer) ParseOrderBook(rec *depthRecord, symbol string) *core.OrderBook {
	ts := asInt64(rec.T)
	if ts == 0 {
		ts = asInt64(rec.Ts)
	}
	return &core.OrderBook{
		Symbol:    symbol,
		Bids:      parseBookLevels(rec.Bids),
		Asks:      parseBookLevels(rec.Asks),
		Timestamp: time.UnixMilli(ts),
	}
}

func parseBookLevels(levels [][]any) []core.OrderBookLevel {
	out := make([]core.OrderBookLevel, 0, len(levels))
	for _, level := range levels {
		if len(level) < 2 {
			continue
		}
		var obl core.OrderBookLevel
		setDecimal(&obl.Price, level[0])
		setDecimal(&obl.Quantity, level[1])
		out = append(out, obl)
	}
	return out
}

// ParseTrade converts a public trade record to a canonical Trade. A trade
// whose buyer was the maker had a selling taker.
func (n *Normalizer) ParseTrade(rec *tradeRecord, symbol string) *core.Trade {
	side := core.TradeSideBuy
	if rec.IsBuyerMaker || rec.BuyerMaker {
		side = core.TradeSideSell
	}
	trade := &core.Trade{
		ID:        asString(rec.ID),
		Symbol:    symbol,
		Side:      side,
		Timestamp: time.UnixMilli(asInt64(rec.Time)),
	}
	setDecimal(&trade.Price, rec.Price)
	setDecimal(&trade.Quantity, rec.Qty)
	return trade
}

// ParseTrades maps a sequence of trade records in upstream order.
func (n *Normalizer) ParseTrades(recs []tradeRecord, symbol string) []core.Trade {
	trades := make([]core.Trade, 0, len(recs))
	for i := range recs {
		trades = append(trades, *n.ParseTrade(&recs[i], symbol))
	}
	return trades
}

// ParseFundingRate converts a premium index record to a canonical FundingRate.
func (n *Normalizer) ParseFundingRate(rec *premiumIndexRecord) *core.FundingRate {
	fr := &core.FundingRate{
		Symbol:          unifySymbol(rec.Symbol),
		NextFundingTime: time.UnixMilli(asInt64(rec.NextFundingTime)),
	}
	setDecimal(&fr.MarkPrice, rec.MarkPrice)
	setDecimal(&fr.IndexPrice, rec.IndexPrice)
	setDecimal(&fr.Rate, rec.LastFundingRate)
	return fr
}

// ParseOpenInterest converts an open interest record to its canonical form.
func (n *Normalizer) ParseOpenInterest(rec *openInterestRecord) *core.OpenInterest {
	oi := &core.OpenInterest{
		Symbol:    unifySymbol(rec.Symbol),
		Timestamp: time.UnixMilli(asInt64(rec.Time)),
	}
	setDecimal(&oi.Amount, rec.OpenInterest)
	return oi
}

// splitID splits an exchange-native id like "BTC-USDT" into its raw currency
// codes. Ids are expected to contain exactly one separator; extra segments
// beyond the second are ignored.
func splitID(id string) (baseID, quoteID string) {
	parts := strings.Split(id, "-")
	baseID = parts[0]
	if len(parts) > 1 {
		quoteID = parts[1]
	}
	return baseID, quoteID
}

// currencyCode canonicalizes a raw currency id to its unified code.
func currencyCode(id string) string {
	code := strings.ToUpper(id)
	if unified, ok := commonCurrencies[code]; ok {
		return unified
	}
	return code
}

// unifySymbol converts an exchange-native id to the unified "BASE/QUOTE" form.
func unifySymbol(id string) string {
	baseID, quoteID := splitID(id)
	return currencyCode(baseID) + "/" + currencyCode(quoteID)
}

// asDecimal coerces a decoded JSON value to a decimal, accepting both native
// numbers and numeric-looking strings. Missing or malformed values yield nil.
func asDecimal(v any) *apd.Decimal {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		d := new(apd.Decimal)
		if _, _, err := apd.BaseContext.SetString(d, x); err != nil {
			return nil
		}
		return d
	case float64:
		d := new(apd.Decimal)
		if _, err := d.SetFloat64(x); err != nil {
			return nil
		}
		return d
	case int64:
		return new(apd.Decimal).SetInt64(x)
	case int:
		return new(apd.Decimal).SetInt64(int64(x))
	case json.Number:
		d := new(apd.Decimal)
		if _, _, err := apd.BaseContext.SetString(d, x.String()); err != nil {
			return nil
		}
		return d
	default:
		return nil
	}
}

// setDecimal assigns the coerced value into dest, leaving it zero when the
// source is missing or malformed.
func setDecimal(dest *apd.Decimal, v any) {
	if d := asDecimal(v); d != nil {
		*dest = *d
	}
}

// asInt64 coerces a decoded JSON value to an integer, accepting both native
// numbers and numeric-looking strings. Missing or malformed values yield zero.
func asInt64(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case int64:
		return x
	case int:
		return int64(x)
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// asString coerces a decoded JSON scalar to its string form, so numeric and
// string status flags compare uniformly.
func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case json.Number:
		return x.String()
	default:
		return ""
	}
}
