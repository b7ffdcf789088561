package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultDecimals is used whenever a token's precision cannot be fetched.
const DefaultDecimals uint8 = 18

// TokenRef identifies a token on one chain. The zero address means the token
// is configured but not deployed yet, and it never takes part in a scan.
type TokenRef struct {
	Symbol  string         `json:"symbol"`
	Address common.Address `json:"address"`
}

// IsSet reports whether the token carries a real address.
func (t TokenRef) IsSet() bool {
	return t.Address != (common.Address{})
}

func (t TokenRef) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}

// SetTokens returns the tokens with a non-zero address, preserving order.
func SetTokens(tokens []TokenRef) []TokenRef {
	out := make([]TokenRef, 0, len(tokens))
	for _, t := range tokens {
		if t.IsSet() {
			out = append(out, t)
		}
	}
	return out
}

// PairReserves is a point-in-time snapshot of a pair contract.
type PairReserves struct {
	Pair               common.Address `json:"pair"`
	Reserve0           *big.Int       `json:"reserve0"`
	Reserve1           *big.Int       `json:"reserve1"`
	BlockTimestampLast uint32         `json:"block_timestamp_last"`
}

// PriceQuote is one router quote. It is recomputed every scan.
type PriceQuote struct {
	Venue     string    `json:"venue"`
	TokenIn   TokenRef  `json:"token_in"`
	TokenOut  TokenRef  `json:"token_out"`
	AmountIn  float64   `json:"amount_in"`
	AmountOut float64   `json:"amount_out"`
	QuotedAt  time.Time `json:"quoted_at"`
}

// Price is AmountOut per unit of AmountIn.
func (q PriceQuote) Price() float64 {
	if q.AmountIn == 0 {
		return 0
	}
	return q.AmountOut / q.AmountIn
}

// PoolInfo describes a discovered pair for the pools report.
type PoolInfo struct {
	Venue    string       `json:"venue"`
	Pair     string       `json:"pair"`
	Address  string       `json:"address"`
	Reserves PairReserves `json:"reserves"`
}

// PoolStatus is the status of a confidential pool handle.
type PoolStatus string

const (
	PoolActive   PoolStatus = "active"
	PoolInactive PoolStatus = "inactive"
)
