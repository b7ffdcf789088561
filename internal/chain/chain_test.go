package chain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ethService struct {
	chainID int64
	block   uint64
}

func (s *ethService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(s.chainID))
}

func (s *ethService) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(s.block)
}

func newRPCServer(t *testing.T, chainID int64, block uint64) string {
	t.Helper()
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", &ethService{chainID: chainID, block: block}))
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return ts.URL
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDial_FailsOverToNextURL(t *testing.T) {
	good := newRPCServer(t, 1135, 4242)

	c, err := Dial(context.Background(), "lisk", []string{"http://127.0.0.1:1", good}, 2*time.Second, discardLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, good, c.URL)
	assert.Equal(t, int64(1135), c.ChainID.Int64())
	assert.Equal(t, uint64(4242), c.Block)
}

func TestDial_AllFail(t *testing.T) {
	_, err := Dial(context.Background(), "zama", []string{"http://127.0.0.1:1", "http://127.0.0.1:2"}, time.Second, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnectivity)

	_, err = Dial(context.Background(), "zama", nil, time.Second, discardLogger())
	assert.ErrorIs(t, err, domain.ErrConnectivity)
}

type fakePricer struct {
	price *big.Int
	err   error
}

func (f fakePricer) SuggestGasPrice(context.Context) (*big.Int, error) { return f.price, f.err }

func TestGasCost(t *testing.T) {
	// 2 gwei * 300k gas = 0.0006 ether
	cost, err := GasCost(context.Background(), fakePricer{price: big.NewInt(2_000_000_000)}, 300_000)
	require.NoError(t, err)
	assert.Equal(t, "0.0006", cost.String())

	_, err = GasCost(context.Background(), fakePricer{err: errors.New("boom")}, 300_000)
	assert.Error(t, err)
}

func TestFormatEther(t *testing.T) {
	wei, ok := new(big.Int).SetString("1500000000000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "1.500000", FormatEther(wei))
	assert.Equal(t, "0.000000", FormatEther(nil))
}
