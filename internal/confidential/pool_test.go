package confidential

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCode struct {
	code map[common.Address][]byte
	err  error
}

func (f fakeCode) CodeAt(_ context.Context, addr common.Address, _ *big.Int) ([]byte, error) {
	return f.code[addr], f.err
}

func TestZamaPool_Status(t *testing.T) {
	deployed := common.HexToAddress("0x3456789012345678901234567890123456789012")
	empty := common.HexToAddress("0x4567890123456789012345678901234567890123")
	reader := fakeCode{code: map[common.Address][]byte{deployed: {0x60, 0x80}}}
	ctx := context.Background()

	assert.Equal(t, domain.PoolActive, NewZamaPool("pool_a", "zama", deployed, "", reader, time.Second).Status(ctx))
	assert.Equal(t, domain.PoolInactive, NewZamaPool("pool_b", "zama", empty, "", reader, time.Second).Status(ctx))
	assert.Equal(t, domain.PoolInactive, NewZamaPool("pool_c", "zama", deployed, "", fakeCode{err: errors.New("down")}, time.Second).Status(ctx))
}

func TestZamaPool_SubmitTransfer(t *testing.T) {
	p := NewZamaPool("pool_a", "zama", common.Address{}, "", nil, time.Second)
	_, err := p.SubmitTransfer(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestStatic(t *testing.T) {
	var p Pool = &Static{PoolName: "fake", PoolStatus: domain.PoolActive}

	ref, err := p.SubmitTransfer(context.Background(), []byte("payload"))
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, ref.Hash)
	assert.Equal(t, [][]byte{[]byte("payload")}, p.(*Static).Submitted())
	assert.Equal(t, domain.PoolActive, p.Status(context.Background()))
}
