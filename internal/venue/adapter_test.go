package venue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/confidential"
	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	router  = common.HexToAddress("0x1234567890123456789012345678901234567890")
	factory = common.HexToAddress("0x2345678901234567890123456789012345678901")
	wlsk    = common.HexToAddress("0x5678901234567890123456789012345678901234")
	lsk     = common.HexToAddress("0x6789012345678901234567890123456789012345")
	usdc    = common.HexToAddress("0x2345678901234567890123456789012345678902")
	pairAB  = common.HexToAddress("0x00000000000000000000000000000000000000ab")
)

func newTestAdapter(f *fakeChain) *Adapter {
	return NewAdapter(Spec{Name: "liskswap", Chain: "lisk", Router: router, Factory: factory}, f, time.Second, discardLogger())
}

func TestAdapter_DecimalsCached(t *testing.T) {
	f := newFakeChain()
	f.decimals[usdc] = 6
	a := newTestAdapter(f)
	ctx := context.Background()

	assert.Equal(t, uint8(6), a.Decimals(ctx, usdc))
	assert.Equal(t, uint8(6), a.Decimals(ctx, usdc))
	assert.Equal(t, 1, f.count("decimals"))
}

func TestAdapter_DecimalsFailureNotCached(t *testing.T) {
	f := newFakeChain()
	f.decimalsErr = errors.New("rpc down")
	a := newTestAdapter(f)
	ctx := context.Background()

	assert.Equal(t, domain.DefaultDecimals, a.Decimals(ctx, usdc))
	assert.Equal(t, domain.DefaultDecimals, a.Decimals(ctx, usdc))
	assert.Equal(t, 2, f.count("decimals"))

	f.decimalsErr = nil
	f.decimals[usdc] = 6
	assert.Equal(t, uint8(6), a.Decimals(ctx, usdc))
}

func TestAdapter_Quote(t *testing.T) {
	f := newFakeChain()
	f.decimals[usdc] = 6
	f.rates[pairKey{wlsk, usdc}] = 0.85
	a := newTestAdapter(f)

	out, err := a.Quote(context.Background(), wlsk, usdc, 2.0)
	require.NoError(t, err)
	assert.InDelta(t, 1.7, out, 1e-6)
}

func TestAdapter_QuoteFailuresAreClassified(t *testing.T) {
	f := newFakeChain()
	f.quoteErr[pairKey{wlsk, lsk}] = errors.New("connection reset by peer")
	a := newTestAdapter(f)
	ctx := context.Background()

	_, err := a.Quote(ctx, wlsk, lsk, 1)
	assert.ErrorIs(t, err, domain.ErrConnectivity)

	// No rate configured: the router reverts.
	_, err = a.Quote(ctx, lsk, usdc, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = a.Quote(ctx, wlsk, lsk, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.hang = true
	a.timeout = 20 * time.Millisecond
	_, err = a.Quote(ctx, wlsk, usdc, 1)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestAdapter_PairAndReserves(t *testing.T) {
	f := newFakeChain()
	f.pairs[pairKey{wlsk, lsk}] = pairAB
	f.reserves[pairAB] = [2]int64{1000, 2000}
	a := newTestAdapter(f)
	ctx := context.Background()

	pair, err := a.PairAddress(ctx, lsk, wlsk)
	require.NoError(t, err)
	assert.Equal(t, pairAB, pair)

	_, err = a.PairAddress(ctx, wlsk, usdc)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	res, err := a.Reserves(ctx, pairAB)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Reserve0.Int64())
	assert.Equal(t, int64(2000), res.Reserve1.Int64())
	assert.Equal(t, uint32(1700000000), res.BlockTimestampLast)
}

func TestAdapter_PriceImpact(t *testing.T) {
	f := newFakeChain()
	f.rates[pairKey{wlsk, lsk}] = 2.0
	a := newTestAdapter(f)

	impact, err := a.PriceImpact(context.Background(), wlsk, lsk, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0, impact, 1e-9)

	_, err = a.PriceImpact(context.Background(), lsk, wlsk, 10)
	assert.Error(t, err)
}

func TestAdapter_Pools(t *testing.T) {
	f := newFakeChain()
	f.pairs[pairKey{lsk, wlsk}] = pairAB
	f.reserves[pairAB] = [2]int64{5, 7}
	a := newTestAdapter(f)

	anchor := domain.TokenRef{Symbol: "LSK", Address: lsk}
	others := []domain.TokenRef{
		{Symbol: "WLSK", Address: wlsk},
		{Symbol: "USDC", Address: usdc},
		{Symbol: "ZAMA"},
		anchor,
	}
	pools := a.Pools(context.Background(), anchor, others)
	require.Len(t, pools, 1)
	assert.Equal(t, "LSK/WLSK", pools[0].Pair)
	assert.Equal(t, pairAB.Hex(), pools[0].Address)
}

func TestRegistry_RequiresBothChains(t *testing.T) {
	ctx := context.Background()
	opts := Options{CallTimeout: time.Second, Logger: discardLogger()}

	_, err := NewRegistry(ctx, map[string]Backend{"lisk": newFakeChain()}, nil, nil, opts)
	assert.ErrorIs(t, err, domain.ErrConnectivity)

	down := newFakeChain()
	down.blockErr = errors.New("dial tcp: connection refused")
	_, err = NewRegistry(ctx, map[string]Backend{"lisk": newFakeChain(), "zama": down}, nil, nil, opts)
	assert.ErrorIs(t, err, domain.ErrConnectivity)
}

func TestRegistry_QuoteAllOmitsFailures(t *testing.T) {
	lisk := newFakeChain()
	lisk.rates[pairKey{wlsk, usdc}] = 1.05
	zama := newFakeChain()
	zama.quoteErr[pairKey{wlsk, usdc}] = errors.New("boom")

	specs := []Spec{
		{Name: "a", Chain: "lisk", Router: router, Factory: factory},
		{Name: "b", Chain: "zama", Router: router, Factory: factory},
	}
	pools := []confidential.Pool{&confidential.Static{PoolName: "pool_a", PoolStatus: domain.PoolActive}}
	reg, err := NewRegistry(context.Background(), map[string]Backend{"lisk": lisk, "zama": zama}, specs, pools,
		Options{CallTimeout: time.Second, Logger: discardLogger()})
	require.NoError(t, err)

	prices := reg.QuoteAll(context.Background(), domain.TokenRef{Address: wlsk}, domain.TokenRef{Address: usdc})
	require.Len(t, prices, 1)
	assert.InDelta(t, 1.05, prices["a"], 1e-9)

	names := []string{}
	for _, v := range reg.Venues() {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{"a", "b"}, names)

	states := reg.PoolStatuses(context.Background())
	require.Len(t, states, 1)
	assert.Equal(t, domain.PoolActive, states[0].Status)
}
