// Package chain connects to EVM RPC endpoints with ordered failover and
// provides the gas and balance helpers used by the scan loop.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the subset of *ethclient.Client the bot depends on.
type Backend interface {
	ethereum.ContractCaller
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Client is a connected chain endpoint.
type Client struct {
	Backend

	Name    string
	URL     string
	ChainID *big.Int
	Block   uint64

	closeFn func()
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Dial tries each URL in order and returns the first endpoint that answers
// both ChainID and BlockNumber within timeout. When every URL fails the
// returned error wraps domain.ErrConnectivity.
func Dial(ctx context.Context, name string, urls []string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	logger = logger.With(slog.String("component", "chain"), slog.String("chain", name))

	if len(urls) == 0 {
		return nil, fmt.Errorf("chain: %s: no rpc urls configured: %w", name, domain.ErrConnectivity)
	}

	var errs []error
	for _, url := range urls {
		c, err := dialOne(ctx, name, url, timeout)
		if err != nil {
			logger.WarnContext(ctx, "rpc endpoint unavailable",
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		logger.InfoContext(ctx, "connected",
			slog.String("url", url),
			slog.String("chain_id", c.ChainID.String()),
			slog.Uint64("block", c.Block),
		)
		return c, nil
	}

	return nil, fmt.Errorf("chain: %s: all %d rpc urls failed: %w",
		name, len(urls), errors.Join(append([]error{domain.ErrConnectivity}, errs...)...))
}

func dialOne(ctx context.Context, name, url string, timeout time.Duration) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ec, err := ethclient.DialContext(dialCtx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	chainID, err := ec.ChainID(dialCtx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("%s chain id: %w", url, err)
	}
	block, err := ec.BlockNumber(dialCtx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("%s block number: %w", url, err)
	}

	return &Client{
		Backend: ec,
		Name:    name,
		URL:     url,
		ChainID: chainID,
		Block:   block,
		closeFn: ec.Close,
	}, nil
}
