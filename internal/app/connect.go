package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/privpoolbot/internal/arbitrage"
	"github.com/alanyoungcy/privpoolbot/internal/chain"
	"github.com/alanyoungcy/privpoolbot/internal/confidential"
	"github.com/alanyoungcy/privpoolbot/internal/config"
	"github.com/alanyoungcy/privpoolbot/internal/crypto"
	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/alanyoungcy/privpoolbot/internal/service"
	"github.com/alanyoungcy/privpoolbot/internal/venue"
)

// Connector dials both chains and builds the venue registry and detector. It
// is the scan loop's Connecting step.
type Connector struct {
	cfg    *config.Config
	cred   *crypto.Credential
	scan   *service.ScanService // optional
	cache  domain.PriceCache
	bus    domain.SignalBus
	logger *slog.Logger

	mu       sync.RWMutex
	clients  map[string]*chain.Client
	registry *venue.Registry
	detector *arbitrage.Detector
}

// NewConnector creates a Connector. When scan is non-nil the registry and
// detector are attached to it on connect.
func NewConnector(cfg *config.Config, cred *crypto.Credential, scan *service.ScanService, cache domain.PriceCache, bus domain.SignalBus, logger *slog.Logger) *Connector {
	return &Connector{
		cfg:    cfg,
		cred:   cred,
		scan:   scan,
		cache:  cache,
		bus:    bus,
		logger: logger.With(slog.String("component", "connector")),
	}
}

// Connect dials both chains, logs the wallet, builds the registry and the
// enabled strategies. Any failure wraps domain.ErrConnectivity or a config
// error and is fatal to the caller.
func (c *Connector) Connect(ctx context.Context) error {
	mon := c.cfg.Monitoring
	clients := make(map[string]*chain.Client, 2)
	for name, urls := range map[string][]string{
		config.ChainLisk: c.cfg.Chains.Lisk.RPCURLs,
		config.ChainZama: c.cfg.Chains.Zama.RPCURLs,
	} {
		cl, err := chain.Dial(ctx, name, urls, mon.ConnectTimeout.Duration, c.logger)
		if err != nil {
			closeAll(clients)
			return fmt.Errorf("app: connect: %w", err)
		}
		clients[name] = cl
	}

	c.logWallet(ctx, map[string]chain.BalanceReader{
		config.ChainLisk: clients[config.ChainLisk],
		config.ChainZama: clients[config.ChainZama],
	})

	tokens := tokenRefs(c.cfg.Tokens)
	specs, err := venueSpecs(c.cfg.Venues, tokens)
	if err != nil {
		closeAll(clients)
		return fmt.Errorf("app: connect: %w", err)
	}

	backends := make(map[string]venue.Backend, len(clients))
	for name, cl := range clients {
		backends[name] = cl
	}
	pools := confidentialPools(c.cfg.ConfidentialPools, clients, mon.CallTimeout.Duration)

	registry, err := venue.NewRegistry(ctx, backends, specs, pools, venue.Options{
		CallTimeout: mon.CallTimeout.Duration,
		Logger:      c.logger,
	})
	if err != nil {
		closeAll(clients)
		return fmt.Errorf("app: connect: %w", err)
	}

	detector, err := buildDetector(c.cfg, registry, tokens, c.logger)
	if err != nil {
		closeAll(clients)
		return fmt.Errorf("app: connect: %w", err)
	}

	c.mu.Lock()
	c.clients = clients
	c.registry = registry
	c.detector = detector
	scan := c.scan
	c.mu.Unlock()

	if scan != nil {
		prices := service.NewPriceService(registry, c.cfg.Arbitrage.PriceVenue,
			pricePairs(c.cfg.Arbitrage.PricePairs, tokens), c.cache, c.bus, c.logger)
		scan.Attach(prices, detector)
	}

	c.logger.InfoContext(ctx, "connected",
		slog.Any("venues", registry.VenueNames()),
		slog.Any("strategies", detector.Strategies()),
		slog.Int("confidential_pools", len(pools)),
	)
	return nil
}

// logWallet logs the wallet balance per chain, each read bounded by the call
// timeout.
func (c *Connector) logWallet(ctx context.Context, readers map[string]chain.BalanceReader) {
	if c.cred == nil {
		c.logger.WarnContext(ctx, "no private key configured, running read-only")
		return
	}
	for _, name := range []string{config.ChainLisk, config.ChainZama} {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Monitoring.CallTimeout.Duration)
		bal, err := chain.Balance(callCtx, readers[name], c.cred.Address)
		cancel()
		if err != nil {
			c.logger.WarnContext(ctx, "balance unavailable",
				slog.String("chain", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		c.logger.InfoContext(ctx, "wallet",
			slog.String("chain", name),
			slog.String("address", c.cred.Address.Hex()),
			slog.String("balance", bal.StringFixed(6)),
		)
	}
}

// AttachTo sets the scan service that receives the registry and detector on
// the next Connect.
func (c *Connector) AttachTo(scan *service.ScanService) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scan = scan
}

// Registry returns the venue registry, or nil before Connect.
func (c *Connector) Registry() *venue.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry
}

// PoolStatuses reads confidential pool status through the registry.
func (c *Connector) PoolStatuses(ctx context.Context) ([]venue.PoolState, error) {
	r := c.Registry()
	if r == nil {
		return nil, fmt.Errorf("app: pools: not connected: %w", domain.ErrConnectivity)
	}
	return r.PoolStatuses(ctx), nil
}

// GasPricer returns a pricer for the named chain that resolves the client
// lazily, so the gate can be built before the chains are dialed.
func (c *Connector) GasPricer(chainName string) chain.GasPricer {
	return gasPricerFunc(func(ctx context.Context) (*big.Int, error) {
		c.mu.RLock()
		cl := c.clients[chainName]
		c.mu.RUnlock()
		if cl == nil {
			return nil, fmt.Errorf("app: gas price: %s not connected: %w", chainName, domain.ErrConnectivity)
		}
		return cl.SuggestGasPrice(ctx)
	})
}

// Close releases the chain connections.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	closeAll(c.clients)
	c.clients = nil
}

type gasPricerFunc func(ctx context.Context) (*big.Int, error)

func (f gasPricerFunc) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return f(ctx) }

func closeAll(clients map[string]*chain.Client) {
	for _, cl := range clients {
		cl.Close()
	}
}

// tokenRefs converts the ordered token list. Missing or invalid addresses
// become the zero address, which marks the token as not deployed.
func tokenRefs(tokens []config.TokenConfig) []domain.TokenRef {
	out := make([]domain.TokenRef, len(tokens))
	for i, t := range tokens {
		out[i] = domain.TokenRef{Symbol: t.Symbol}
		if common.IsHexAddress(t.Address) {
			out[i].Address = common.HexToAddress(t.Address)
		}
	}
	return out
}

func tokenBySymbol(tokens []domain.TokenRef, symbol string) (domain.TokenRef, bool) {
	for _, t := range tokens {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return domain.TokenRef{}, false
}

func venueSpecs(venues []config.VenueConfig, tokens []domain.TokenRef) ([]venue.Spec, error) {
	specs := make([]venue.Spec, 0, len(venues))
	for _, v := range venues {
		if !common.IsHexAddress(v.Router) || !common.IsHexAddress(v.Factory) {
			return nil, fmt.Errorf("venue %s: invalid contract address", v.Name)
		}
		anchor, _ := tokenBySymbol(tokens, v.Anchor)
		specs = append(specs, venue.Spec{
			Name:    v.Name,
			Chain:   v.Chain,
			Router:  common.HexToAddress(v.Router),
			Factory: common.HexToAddress(v.Factory),
			Anchor:  anchor,
		})
	}
	return specs, nil
}

func confidentialPools(cfgs []config.PoolConfig, clients map[string]*chain.Client, timeout time.Duration) []confidential.Pool {
	pools := make([]confidential.Pool, 0, len(cfgs))
	for _, p := range cfgs {
		pools = append(pools, confidential.NewZamaPool(p.Name, p.Chain, common.HexToAddress(p.Address), p.KeyRef, clients[p.Chain], timeout))
	}
	return pools
}

// pricePairs resolves "IN/OUT" expressions. Pairs naming an unknown symbol
// are dropped; pairs with undeployed tokens are kept and skipped per scan.
func pricePairs(exprs []string, tokens []domain.TokenRef) []service.PricePair {
	var pairs []service.PricePair
	for _, e := range exprs {
		in, out, err := config.ParsePair(e)
		if err != nil {
			continue
		}
		tin, ok1 := tokenBySymbol(tokens, in)
		tout, ok2 := tokenBySymbol(tokens, out)
		if !ok1 || !ok2 {
			continue
		}
		pairs = append(pairs, service.PricePair{In: tin, Out: tout})
	}
	return pairs
}

// buildDetector registers both strategies and selects the enabled ones in
// config order.
func buildDetector(cfg *config.Config, registry *venue.Registry, tokens []domain.TokenRef, logger *slog.Logger) (*arbitrage.Detector, error) {
	reg := arbitrage.NewRegistry()
	reg.Register(arbitrage.NewTriangular(registry, cfg.Arbitrage.TriangularVenues, tokens, cfg.Arbitrage.TriangularTokens, logger))

	var crossIn, crossOut domain.TokenRef
	if in, out, err := config.ParsePair(cfg.Arbitrage.CrossPair); err == nil {
		crossIn, _ = tokenBySymbol(tokens, in)
		crossOut, _ = tokenBySymbol(tokens, out)
	}
	reg.Register(arbitrage.NewCrossVenue(registry, crossIn, crossOut, logger))

	strategies, err := reg.Select(cfg.Arbitrage.Strategies)
	if err != nil {
		return nil, err
	}
	return arbitrage.NewDetector(strategies, logger), nil
}
