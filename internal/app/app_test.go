package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/privpoolbot/internal/chain"
	"github.com/alanyoungcy/privpoolbot/internal/config"
	"github.com/alanyoungcy/privpoolbot/internal/crypto"
	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTokenRefs_KeepsOrderAndUnsetTokens(t *testing.T) {
	refs := tokenRefs([]config.TokenConfig{
		{Symbol: "WLSK", Address: "0x5678901234567890123456789012345678901234"},
		{Symbol: "USDT"},
		{Symbol: "BAD", Address: "not-an-address"},
	})
	require.Len(t, refs, 3)
	assert.Equal(t, "WLSK", refs[0].Symbol)
	assert.True(t, refs[0].IsSet())
	assert.False(t, refs[1].IsSet())
	assert.False(t, refs[2].IsSet())
}

func TestPricePairs(t *testing.T) {
	tokens := []domain.TokenRef{
		{Symbol: "A", Address: common.HexToAddress("0xa")},
		{Symbol: "B", Address: common.HexToAddress("0xb")},
		{Symbol: "C"},
	}
	pairs := pricePairs([]string{"A/B", "B/C", "A/Z", "garbage"}, tokens)
	require.Len(t, pairs, 2)
	assert.Equal(t, "A", pairs[0].In.Symbol)
	assert.Equal(t, "B", pairs[0].Out.Symbol)
	assert.False(t, pairs[1].Out.IsSet(), "undeployed tokens are skipped per scan, not dropped")
}

func TestVenueSpecs_ResolvesAnchor(t *testing.T) {
	tokens := []domain.TokenRef{{Symbol: "LSK", Address: common.HexToAddress("0x1")}}
	specs, err := venueSpecs([]config.VenueConfig{{
		Name:    "liskswap",
		Chain:   config.ChainLisk,
		Router:  "0x1234567890123456789012345678901234567890",
		Factory: "0x2345678901234567890123456789012345678901",
		Anchor:  "LSK",
	}}, tokens)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, tokens[0], specs[0].Anchor)

	_, err = venueSpecs([]config.VenueConfig{{Name: "broken", Router: "0x1"}}, tokens)
	assert.Error(t, err)
}

func TestBuildDetector_SelectsConfiguredStrategies(t *testing.T) {
	cfg := config.Defaults()
	cfg.Arbitrage.Strategies = []string{config.StrategyCrossVenue, config.StrategyTriangular}

	d, err := buildDetector(&cfg, nil, tokenRefs(cfg.Tokens), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"cross_venue", "triangular"}, d.Strategies())

	cfg.Arbitrage.Strategies = []string{"sandwich"}
	_, err = buildDetector(&cfg, nil, tokenRefs(cfg.Tokens), discardLogger())
	assert.Error(t, err)
}

func TestConnector_BeforeConnect(t *testing.T) {
	cfg := config.Defaults()
	c := NewConnector(&cfg, nil, nil, nil, nil, discardLogger())

	_, err := c.PoolStatuses(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnectivity)

	_, err = c.GasPricer(config.ChainLisk).SuggestGasPrice(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnectivity)

	assert.Nil(t, c.Registry())
	c.Close()
}

func TestWire_StatusModeSkipsStores(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "status"
	cfg.Postgres.Enabled = true // would fail to connect if attempted

	deps, cleanup, err := Wire(context.Background(), &cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, deps.Credential)
	assert.Nil(t, deps.Postgres)
	assert.Nil(t, deps.Ledger)
}

func TestWire_ScanModeWithJournal(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "scan"
	cfg.Wallet.PrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	cfg.Journal.Enabled = true
	cfg.Journal.Dir = t.TempDir()

	deps, cleanup, err := Wire(context.Background(), &cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, deps.Credential)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", deps.Credential.Address.Hex())
	require.NotNil(t, deps.Journal)
	require.NotNil(t, deps.Ledger)
	assert.Zero(t, deps.Ledger.Len())
	assert.NotNil(t, deps.Notifier)
	assert.False(t, deps.Notifier.Enabled())
	assert.Nil(t, deps.SignalBus)
}

func TestNonFatal_ServerFailureKeepsGroupAlive(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(nonFatal(gctx, "http server", func(context.Context) error {
		return errors.New("listen tcp :8000: bind: address already in use")
	}, logger))
	require.NoError(t, g.Wait())
	assert.NoError(t, gctx.Err(), "a server failure must not cancel the scan group")
	assert.Contains(t, logs.String(), "address already in use")

	logs.Reset()
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	stopped := nonFatal(canceled, "http server", func(c context.Context) error { return c.Err() }, logger)
	assert.NoError(t, stopped())
	assert.Empty(t, logs.String())
}

type deadlineReader struct{ hadDeadline bool }

func (r *deadlineReader) BalanceAt(ctx context.Context, _ common.Address, _ *big.Int) (*big.Int, error) {
	_, r.hadDeadline = ctx.Deadline()
	return big.NewInt(1e18), nil
}

func TestConnector_WalletBalanceIsTimeBounded(t *testing.T) {
	cfg := config.Defaults()
	cred := &crypto.Credential{Address: common.HexToAddress("0xabc")}
	c := NewConnector(&cfg, cred, nil, nil, nil, discardLogger())

	lisk, zama := &deadlineReader{}, &deadlineReader{}
	c.logWallet(context.Background(), map[string]chain.BalanceReader{
		config.ChainLisk: lisk,
		config.ChainZama: zama,
	})
	assert.True(t, lisk.hadDeadline)
	assert.True(t, zama.hadDeadline)
}
