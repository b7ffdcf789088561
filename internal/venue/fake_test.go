package venue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type pairKey [2]common.Address

// revertErr mimics the JSON-RPC error go-ethereum returns for a revert.
type revertErr struct{}

func (revertErr) Error() string  { return "execution reverted" }
func (revertErr) ErrorCode() int { return 3 }

// fakeChain answers ABI calls from in-memory tables.
type fakeChain struct {
	mu    sync.Mutex
	calls map[string]int

	block    uint64
	blockErr error

	decimals    map[common.Address]uint8
	decimalsErr error
	pairs       map[pairKey]common.Address
	reserves    map[common.Address][2]int64
	rates       map[pairKey]float64
	quoteErr    map[pairKey]error
	hang        bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		calls:    make(map[string]int),
		block:    100,
		decimals: make(map[common.Address]uint8),
		pairs:    make(map[pairKey]common.Address),
		reserves: make(map[common.Address][2]int64),
		rates:    make(map[pairKey]float64),
		quoteErr: make(map[pairKey]error),
	}
}

func (f *fakeChain) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	return f.block, f.blockErr
}

func (f *fakeChain) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if len(msg.Data) < 4 {
		return nil, errors.New("short calldata")
	}
	for _, contract := range []abi.ABI{factoryABI, pairABI, routerABI, erc20ABI} {
		m, err := contract.MethodById(msg.Data[:4])
		if err != nil {
			continue
		}
		args, err := m.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.calls[m.Name]++
		f.mu.Unlock()
		return f.handle(m, *msg.To, args)
	}
	return nil, fmt.Errorf("unknown selector %x", msg.Data[:4])
}

func (f *fakeChain) handle(m *abi.Method, to common.Address, args []any) ([]byte, error) {
	switch m.Name {
	case "decimals":
		if f.decimalsErr != nil {
			return nil, f.decimalsErr
		}
		d, ok := f.decimals[to]
		if !ok {
			d = 18
		}
		return m.Outputs.Pack(d)
	case "getPair":
		a, b := args[0].(common.Address), args[1].(common.Address)
		pair := f.pairs[pairKey{a, b}]
		if pair == (common.Address{}) {
			pair = f.pairs[pairKey{b, a}]
		}
		return m.Outputs.Pack(pair)
	case "getReserves":
		r, ok := f.reserves[to]
		if !ok {
			return nil, revertErr{}
		}
		return m.Outputs.Pack(big.NewInt(r[0]), big.NewInt(r[1]), uint32(1700000000))
	case "getAmountsOut":
		raw := args[0].(*big.Int)
		path := args[1].([]common.Address)
		key := pairKey{path[0], path[1]}
		if err := f.quoteErr[key]; err != nil {
			return nil, err
		}
		rate, ok := f.rates[key]
		if !ok {
			return nil, revertErr{}
		}
		in := fromRaw(raw, f.decimalsOf(path[0]))
		out := toRaw(in*rate, f.decimalsOf(path[1]))
		return m.Outputs.Pack([]*big.Int{raw, out})
	case "symbol":
		return m.Outputs.Pack("TKN")
	case "balanceOf":
		return m.Outputs.Pack(big.NewInt(2_500_000))
	case "allPairsLength":
		return m.Outputs.Pack(big.NewInt(int64(len(f.pairs))))
	}
	return nil, revertErr{}
}

func (f *fakeChain) decimalsOf(token common.Address) uint8 {
	if d, ok := f.decimals[token]; ok {
		return d
	}
	return 18
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
