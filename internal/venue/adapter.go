// Package venue reads UniswapV2-style venues: pair discovery, reserves,
// token metadata and router quotes.
package venue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// marginalAmount is the trade size used as the reference for price impact.
const marginalAmount = 0.001

var errEmptyOutput = fmt.Errorf("empty call output: %w", domain.ErrNotFound)

// Spec describes a venue's contracts.
type Spec struct {
	Name    string
	Chain   string
	Router  common.Address
	Factory common.Address
	Anchor  domain.TokenRef
}

// Adapter issues read-only calls against one venue. It is safe for concurrent
// use.
type Adapter struct {
	spec    Spec
	caller  ethereum.ContractCaller
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.RWMutex
	decimals map[common.Address]uint8
}

// NewAdapter creates an Adapter that bounds every call by timeout.
func NewAdapter(spec Spec, caller ethereum.ContractCaller, timeout time.Duration, logger *slog.Logger) *Adapter {
	return &Adapter{
		spec:     spec,
		caller:   caller,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "venue"), slog.String("venue", spec.Name)),
		decimals: make(map[common.Address]uint8),
	}
}

// Name returns the venue name.
func (a *Adapter) Name() string { return a.spec.Name }

// Chain returns the chain the venue lives on.
func (a *Adapter) Chain() string { return a.spec.Chain }

// Anchor returns the token pools are listed against.
func (a *Adapter) Anchor() domain.TokenRef { return a.spec.Anchor }

func (a *Adapter) call(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.caller.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errEmptyOutput
	}
	return contract.Unpack(method, out)
}

// PairAddress returns the pair contract for (a, b). A zero pair is reported as
// domain.ErrNotFound.
func (a *Adapter) PairAddress(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	out, err := a.call(ctx, a.spec.Factory, factoryABI, "getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, domain.NewQueryError(a.spec.Name, "getPair", err)
	}
	pair, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, domain.NewQueryError(a.spec.Name, "getPair", fmt.Errorf("unexpected output %T", out[0]))
	}
	if pair == (common.Address{}) {
		return common.Address{}, &domain.QueryError{Op: "getPair", Venue: a.spec.Name, Kind: domain.ErrNotFound, Err: domain.ErrNotFound}
	}
	return pair, nil
}

// Reserves reads the current reserves of a pair.
func (a *Adapter) Reserves(ctx context.Context, pair common.Address) (domain.PairReserves, error) {
	out, err := a.call(ctx, pair, pairABI, "getReserves")
	if err != nil {
		return domain.PairReserves{}, domain.NewQueryError(a.spec.Name, "getReserves", err)
	}
	r0, ok0 := out[0].(*big.Int)
	r1, ok1 := out[1].(*big.Int)
	ts, ok2 := out[2].(uint32)
	if !ok0 || !ok1 || !ok2 {
		return domain.PairReserves{}, domain.NewQueryError(a.spec.Name, "getReserves", errors.New("unexpected output types"))
	}
	return domain.PairReserves{Pair: pair, Reserve0: r0, Reserve1: r1, BlockTimestampLast: ts}, nil
}

// Decimals returns the token's precision. Successful lookups are cached for
// the life of the adapter; failures return domain.DefaultDecimals and are
// retried on the next call.
func (a *Adapter) Decimals(ctx context.Context, token common.Address) uint8 {
	a.mu.RLock()
	d, ok := a.decimals[token]
	a.mu.RUnlock()
	if ok {
		return d
	}

	out, err := a.call(ctx, token, erc20ABI, "decimals")
	if err == nil {
		d, ok = out[0].(uint8)
	}
	if err != nil || !ok {
		a.logger.DebugContext(ctx, "decimals lookup failed, using default",
			slog.String("token", token.Hex()),
			slog.Any("error", err),
		)
		return domain.DefaultDecimals
	}

	a.mu.Lock()
	a.decimals[token] = d
	a.mu.Unlock()
	return d
}

// Symbol reads the token's ERC20 symbol.
func (a *Adapter) Symbol(ctx context.Context, token common.Address) (string, error) {
	out, err := a.call(ctx, token, erc20ABI, "symbol")
	if err != nil {
		return "", domain.NewQueryError(a.spec.Name, "symbol", err)
	}
	s, _ := out[0].(string)
	return s, nil
}

// TokenBalance returns owner's balance of token in whole units.
func (a *Adapter) TokenBalance(ctx context.Context, token, owner common.Address) (float64, error) {
	out, err := a.call(ctx, token, erc20ABI, "balanceOf", owner)
	if err != nil {
		return 0, domain.NewQueryError(a.spec.Name, "balanceOf", err)
	}
	raw, ok := out[0].(*big.Int)
	if !ok {
		return 0, domain.NewQueryError(a.spec.Name, "balanceOf", fmt.Errorf("unexpected output %T", out[0]))
	}
	return fromRaw(raw, a.Decimals(ctx, token)), nil
}

// Quote returns how much of out the router gives for amountIn of in, both in
// whole token units.
func (a *Adapter) Quote(ctx context.Context, in, out common.Address, amountIn float64) (float64, error) {
	raw := toRaw(amountIn, a.Decimals(ctx, in))
	if raw.Sign() <= 0 {
		return 0, domain.NewQueryError(a.spec.Name, "getAmountsOut",
			fmt.Errorf("amount %v rounds to zero: %w", amountIn, domain.ErrNotFound))
	}

	res, err := a.call(ctx, a.spec.Router, routerABI, "getAmountsOut", raw, []common.Address{in, out})
	if err != nil {
		return 0, domain.NewQueryError(a.spec.Name, "getAmountsOut", err)
	}
	amounts, ok := res[0].([]*big.Int)
	if !ok || len(amounts) < 2 || amounts[1] == nil {
		return 0, domain.NewQueryError(a.spec.Name, "getAmountsOut", errEmptyOutput)
	}
	return fromRaw(amounts[1], a.Decimals(ctx, out)), nil
}

// PriceImpact compares the execution price of amountIn with the marginal
// price of a tiny trade and returns the relative difference.
func (a *Adapter) PriceImpact(ctx context.Context, in, out common.Address, amountIn float64) (float64, error) {
	marginal, err := a.Quote(ctx, in, out, marginalAmount)
	if err != nil {
		return 0, err
	}
	actual, err := a.Quote(ctx, in, out, amountIn)
	if err != nil {
		return 0, err
	}
	if marginal == 0 || amountIn == 0 {
		return 0, domain.NewQueryError(a.spec.Name, "priceImpact", fmt.Errorf("zero quote: %w", domain.ErrNotFound))
	}
	marginalPrice := marginal / marginalAmount
	actualPrice := actual / amountIn
	return math.Abs(1 - actualPrice/marginalPrice), nil
}

// PairCount returns the number of pairs the factory has created.
func (a *Adapter) PairCount(ctx context.Context) (uint64, error) {
	out, err := a.call(ctx, a.spec.Factory, factoryABI, "allPairsLength")
	if err != nil {
		return 0, domain.NewQueryError(a.spec.Name, "allPairsLength", err)
	}
	n, ok := out[0].(*big.Int)
	if !ok || !n.IsUint64() {
		return 0, domain.NewQueryError(a.spec.Name, "allPairsLength", errors.New("unexpected output"))
	}
	return n.Uint64(), nil
}

// PairAt returns the i-th pair created by the factory.
func (a *Adapter) PairAt(ctx context.Context, i uint64) (common.Address, error) {
	out, err := a.call(ctx, a.spec.Factory, factoryABI, "allPairs", new(big.Int).SetUint64(i))
	if err != nil {
		return common.Address{}, domain.NewQueryError(a.spec.Name, "allPairs", err)
	}
	pair, _ := out[0].(common.Address)
	return pair, nil
}

// PairTokens returns token0 and token1 of a pair.
func (a *Adapter) PairTokens(ctx context.Context, pair common.Address) (common.Address, common.Address, error) {
	out0, err := a.call(ctx, pair, pairABI, "token0")
	if err != nil {
		return common.Address{}, common.Address{}, domain.NewQueryError(a.spec.Name, "token0", err)
	}
	out1, err := a.call(ctx, pair, pairABI, "token1")
	if err != nil {
		return common.Address{}, common.Address{}, domain.NewQueryError(a.spec.Name, "token1", err)
	}
	t0, _ := out0[0].(common.Address)
	t1, _ := out1[0].(common.Address)
	return t0, t1, nil
}

// Pools pairs anchor with every other set token and returns the pairs whose
// address and reserves resolve.
func (a *Adapter) Pools(ctx context.Context, anchor domain.TokenRef, others []domain.TokenRef) []domain.PoolInfo {
	var pools []domain.PoolInfo
	if !anchor.IsSet() {
		return pools
	}
	for _, t := range others {
		if !t.IsSet() || t.Address == anchor.Address {
			continue
		}
		pair, err := a.PairAddress(ctx, anchor.Address, t.Address)
		if err != nil {
			a.logger.DebugContext(ctx, "pair lookup failed",
				slog.String("pair", anchor.Symbol+"/"+t.Symbol),
				slog.String("failure", domain.FailureKind(err)),
			)
			continue
		}
		reserves, err := a.Reserves(ctx, pair)
		if err != nil {
			a.logger.DebugContext(ctx, "reserves lookup failed",
				slog.String("pair", pair.Hex()),
				slog.String("failure", domain.FailureKind(err)),
			)
			continue
		}
		pools = append(pools, domain.PoolInfo{
			Venue:    a.spec.Name,
			Pair:     anchor.Symbol + "/" + t.Symbol,
			Address:  pair.Hex(),
			Reserves: reserves,
		})
	}
	return pools
}

// toRaw converts whole units to the token's integer representation,
// truncating any excess precision.
func toRaw(amount float64, decimals uint8) *big.Int {
	return decimal.NewFromFloat(amount).Shift(int32(decimals)).Truncate(0).BigInt()
}

func fromRaw(raw *big.Int, decimals uint8) float64 {
	return decimal.NewFromBigInt(raw, 0).Shift(-int32(decimals)).InexactFloat64()
}
