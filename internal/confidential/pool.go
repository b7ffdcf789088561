// Package confidential models confidential-transfer pools. Only pool status is
// read; transfers are an interface boundary with no production implementation.
package confidential

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/ethereum/go-ethereum/common"
)

// TxRef identifies a submitted confidential transfer.
type TxRef struct {
	Hash common.Hash
}

// Pool is a handle on a confidential pool.
type Pool interface {
	Name() string
	Chain() string
	Address() common.Address
	Status(ctx context.Context) domain.PoolStatus
	SubmitTransfer(ctx context.Context, payload []byte) (TxRef, error)
}

// CodeReader reads deployed contract code.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// ZamaPool is a pool contract on the Zama chain. A pool is active when code is
// deployed at its address.
type ZamaPool struct {
	name    string
	chain   string
	address common.Address
	keyRef  string
	reader  CodeReader
	timeout time.Duration
}

// NewZamaPool creates a ZamaPool.
func NewZamaPool(name, chain string, address common.Address, keyRef string, reader CodeReader, timeout time.Duration) *ZamaPool {
	return &ZamaPool{
		name:    name,
		chain:   chain,
		address: address,
		keyRef:  keyRef,
		reader:  reader,
		timeout: timeout,
	}
}

func (p *ZamaPool) Name() string            { return p.name }
func (p *ZamaPool) Chain() string           { return p.chain }
func (p *ZamaPool) Address() common.Address { return p.address }

// Status reports PoolActive when the pool contract has code. Any read failure
// counts as inactive.
func (p *ZamaPool) Status(ctx context.Context) domain.PoolStatus {
	if p.reader == nil || p.address == (common.Address{}) {
		return domain.PoolInactive
	}
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	code, err := p.reader.CodeAt(callCtx, p.address, nil)
	if err != nil || len(code) == 0 {
		return domain.PoolInactive
	}
	return domain.PoolActive
}

// SubmitTransfer is not supported; amounts would need client-side FHE
// encryption against the pool's key.
func (p *ZamaPool) SubmitTransfer(context.Context, []byte) (TxRef, error) {
	return TxRef{}, fmt.Errorf("confidential: %s: submit transfer: %w", p.name, domain.ErrNotImplemented)
}

// Static is an in-memory Pool with a fixed status. It records submitted
// payloads.
type Static struct {
	PoolName    string
	PoolChain   string
	PoolAddress common.Address
	PoolStatus  domain.PoolStatus
	SubmitErr   error

	mu        sync.Mutex
	submitted [][]byte
}

func (s *Static) Name() string                             { return s.PoolName }
func (s *Static) Chain() string                            { return s.PoolChain }
func (s *Static) Address() common.Address                  { return s.PoolAddress }
func (s *Static) Status(context.Context) domain.PoolStatus { return s.PoolStatus }

func (s *Static) SubmitTransfer(_ context.Context, payload []byte) (TxRef, error) {
	if s.SubmitErr != nil {
		return TxRef{}, s.SubmitErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, append([]byte(nil), payload...))
	return TxRef{Hash: common.BytesToHash([]byte(fmt.Sprintf("%s-%d", s.PoolName, len(s.submitted))))}, nil
}

// Submitted returns a copy of the payloads submitted so far.
func (s *Static) Submitted() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.submitted...)
}
