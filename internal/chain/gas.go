package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const etherDecimals = 18

// GasPricer reports the current gas price in wei.
type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// BalanceReader reports an account's native balance in wei.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// GasCost estimates gasPrice*gasLimit in ether.
func GasCost(ctx context.Context, p GasPricer, gasLimit uint64) (decimal.Decimal, error) {
	price, err := p.SuggestGasPrice(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("chain: gas price: %w", err)
	}
	wei := new(big.Int).Mul(price, new(big.Int).SetUint64(gasLimit))
	return WeiToEther(wei), nil
}

// Balance returns the latest native balance of account in ether.
func Balance(ctx context.Context, r BalanceReader, account common.Address) (decimal.Decimal, error) {
	wei, err := r.BalanceAt(ctx, account, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("chain: balance of %s: %w", account.Hex(), err)
	}
	return WeiToEther(wei), nil
}

// WeiToEther converts a wei amount to ether.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, 0).Shift(-etherDecimals)
}

// FormatEther renders a wei amount as ether with six decimal places.
func FormatEther(wei *big.Int) string {
	return WeiToEther(wei).StringFixed(6)
}
