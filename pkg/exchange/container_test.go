package exchange

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nakula/pkg/core"
)

type mockExchange struct {
	name     string
	closed   bool
	closeErr error
}

func (m *mockExchange) Name() string { return m.name }
func (m *mockExchange) LoadMarkets(ctx context.Context, opts ...Option) ([]core.Market, error) {
	return nil, nil
}
func (m *mockExchange) Market(symbol string) (*core.Market, error) {
	return nil, core.ErrMarketsNotLoaded
}
func (m *mockExchange) FetchMarkets(ctx context.Context, opts ...Option) ([]core.Market, error) {
	return nil, nil
}
func (m *mockExchange) GetServerTime(ctx context.Context) (time.Time, error) {
	return time.Time{}, nil
}
func (m *mockExchange) GetTicker(ctx context.Context, s string, opts ...Option) (*core.Ticker, error) {
	return nil, nil
}
func (m *mockExchange) GetOrderBook(ctx context.Context, s string, opts ...Option) (*core.OrderBook, error) {
	return nil, nil
}
func (m *mockExchange) GetTrades(ctx context.Context, s string, opts ...Option) ([]core.Trade, error) {
	return nil, nil
}
func (m *mockExchange) GetKlines(ctx context.Context, s, tf string, opts ...Option) ([]core.Candle, error) {
	return nil, nil
}
func (m *mockExchange) GetFundingRate(ctx context.Context, s string) (*core.FundingRate, error) {
	return nil, nil
}
func (m *mockExchange) GetOpenInterest(ctx context.Context, s string) (*core.OpenInterest, error) {
	return nil, nil
}
func (m *mockExchange) Close() error {
	m.closed = true
	return m.closeErr
}

func TestContainer_RegisterAndGet(t *testing.T) {
	c := NewContainer()
	ex := &mockExchange{name: "bingx"}

	c.Register("bingx", ex)

	got, err := c.Get("bingx")
	require.NoError(t, err)
	assert.Same(t, Exchange(ex), got)
}

func TestContainer_GetUnknown(t *testing.T) {
	c := NewContainer()

	_, err := c.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestContainer_RegisterOverwrites(t *testing.T) {
	c := NewContainer()
	first := &mockExchange{name: "bingx"}
	second := &mockExchange{name: "bingx"}

	c.Register("bingx", first)
	c.Register("bingx", second)

	got, err := c.Get("bingx")
	require.NoError(t, err)
	assert.Same(t, Exchange(second), got)
}

func TestContainer_NamesSorted(t *testing.T) {
	c := NewContainer()
	c.Register("zeta", &mockExchange{name: "zeta"})
	c.Register("alpha", &mockExchange{name: "alpha"})

	assert.Equal(t, []string{"alpha", "zeta"}, c.Names())
}

func TestContainer_Unregister(t *testing.T) {
	c := NewContainer()
	c.Register("bingx", &mockExchange{name: "bingx"})

	c.Unregister("bingx")

	assert.False(t, c.Exists("bingx"))
	_, err := c.Get("bingx")
	assert.Error(t, err)
}

func TestContainer_Exists(t *testing.T) {
	c := NewContainer()

	assert.False(t, c.Exists("bingx"))
	c.Register("bingx", &mockExchange{name: "bingx"})
	assert.True(t, c.Exists("bingx"))
}

func TestContainer_CloseAll(t *testing.T) {
	c := NewContainer()
	a := &mockExchange{name: "a"}
	b := &mockExchange{name: "b", closeErr: errors.New("boom")}
	c.Register("a", a)
	c.Register("b", b)

	err := c.CloseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	// all exchanges closed despite the failure, container emptied
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Empty(t, c.Names())
}
