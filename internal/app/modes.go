package app

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/privpoolbot/internal/chain"
	"github.com/alanyoungcy/privpoolbot/internal/config"
	"github.com/alanyoungcy/privpoolbot/internal/executor"
	"github.com/alanyoungcy/privpoolbot/internal/pipeline"
	"github.com/alanyoungcy/privpoolbot/internal/scanloop"
	"github.com/alanyoungcy/privpoolbot/internal/server"
	"github.com/alanyoungcy/privpoolbot/internal/server/handler"
	"github.com/alanyoungcy/privpoolbot/internal/server/ws"
	"github.com/alanyoungcy/privpoolbot/internal/service"
)

// poolsPerVenue caps the anchor pools listed per venue in pools mode.
const poolsPerVenue = 5

// ScanMode runs the scan loop until ctx is cancelled, next to the HTTP
// server and the archive job when those are enabled.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.Any("strategies", a.cfg.Arbitrage.Strategies),
		slog.String("wallet", deps.Credential.String()),
	)

	connector := NewConnector(a.cfg, deps.Credential, nil, deps.PriceCache, deps.SignalBus, a.logger)
	a.closers = append(a.closers, connector.Close)

	gate := executor.NewGate(executor.GateConfig{
		Credential:         deps.Credential,
		MinProfitThreshold: a.cfg.Arbitrage.MinProfitThreshold,
		GasLimit:           uint64(a.cfg.Risk.GasLimitPerTx),
		GasPricer:          connector.GasPricer(a.cfg.Risk.GasChain),
		CallTimeout:        a.cfg.Monitoring.CallTimeout.Duration,
		Ledger:             deps.Ledger,
		Logger:             a.logger,
	})

	sd := service.ScanDeps{Gate: gate}
	if deps.Decisions != nil {
		sd.Decisions = deps.Decisions
	}
	if deps.Audit != nil {
		sd.Audit = deps.Audit
	}
	if deps.SignalBus != nil {
		sd.Bus = deps.SignalBus
	}
	if deps.LockManager != nil {
		sd.Locks = deps.LockManager
	}
	if deps.Notifier != nil {
		sd.Notifier = deps.Notifier
	}
	scanSvc := service.NewScanService(sd, a.cfg.Arbitrage.TopN, a.cfg.Monitoring.LockTTL.Duration, a.logger)
	connector.AttachTo(scanSvc)

	loop := scanloop.NewController(scanloop.Options{
		Config: scanloop.Config{
			ScanInterval:    a.cfg.Monitoring.ScanInterval.Duration,
			BackoffInterval: a.cfg.Monitoring.BackoffInterval.Duration,
			StatsEvery:      a.cfg.Monitoring.StatsEvery,
		},
		Connector: connector,
		Scanner:   scanSvc,
		Observer:  scanSvc,
		Logger:    a.logger,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(ctx)
	})

	if deps.Archiver != nil {
		job := pipeline.NewArchiveJob(deps.Archiver, a.cfg.S3.ArchiveRetentionDays, a.logger)
		g.Go(func() error {
			return job.RunEvery(ctx, a.cfg.S3.ArchiveInterval.Duration)
		})
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, loop, connector, gate)
	}

	return g.Wait()
}

// startHTTPServer registers the API handlers and runs the server, plus the
// WebSocket hub when a signal bus is available.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, loop *scanloop.Controller, connector *Connector, gate *executor.Gate) {
	var checks []handler.Check
	if deps.Postgres != nil {
		checks = append(checks, handler.Check{Name: "postgres", Ping: deps.Postgres.Ping})
	}
	if deps.Redis != nil {
		checks = append(checks, handler.Check{Name: "redis", Ping: deps.Redis.Ping})
	}
	if deps.S3 != nil {
		checks = append(checks, handler.Check{Name: "s3", Ping: deps.S3.Health})
	}

	info := handler.StatusInfo{
		Mode:         a.cfg.Mode,
		Wallet:       deps.Credential.String(),
		Simulating:   gate.Simulating(),
		Strategies:   a.cfg.Arbitrage.Strategies,
		Venues:       venueNames(a.cfg.Venues),
		ThresholdPct: gate.ThresholdPct(),
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, func() any {
			return map[string]any{
				"state":      loop.State().String(),
				"simulating": info.Simulating,
				"stats":      loop.Stats(),
			}
		}, a.cfg.Server.CORSOrigins, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:               a.cfg.Server.Port,
		CORSOrigins:        a.cfg.Server.CORSOrigins,
		APIKey:             a.cfg.Server.APIKey,
		Limiter:            deps.RateLimiter,
		RateLimitPerMinute: a.cfg.Server.RateLimitPerMinute,
	}, server.Handlers{
		Health:    handler.NewHealthHandler(checks, a.logger),
		Status:    handler.NewStatusHandler(info, loop),
		Scan:      handler.NewScanHandler(loop),
		Decisions: handler.NewDecisionHandler(deps.Decisions, gate.Ledger(), a.logger),
		Pools:     handler.NewPoolHandler(connector),
	}, hub, a.logger)

	g.Go(nonFatal(ctx, "http server", srv.Serve, a.logger))
}

// nonFatal adapts a side service for the scan errgroup. Its failure is logged
// and swallowed so the scan loop keeps running.
func nonFatal(ctx context.Context, name string, run func(context.Context) error, logger *slog.Logger) func() error {
	return func() error {
		if err := run(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorContext(ctx, name+" stopped, scanning continues",
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
}

// StatusMode checks connectivity, logs chain and wallet details and the
// redacted config, then returns. Lisk must answer; Zama is reported only.
func (a *App) StatusMode(ctx context.Context, deps *Dependencies) error {
	timeout := a.cfg.Monitoring.ConnectTimeout.Duration

	lisk, err := chain.Dial(ctx, config.ChainLisk, a.cfg.Chains.Lisk.RPCURLs, timeout, a.logger)
	if err != nil {
		return fmt.Errorf("app: status: %w", err)
	}
	defer lisk.Close()
	clients := []*chain.Client{lisk}

	zama, err := chain.Dial(ctx, config.ChainZama, a.cfg.Chains.Zama.RPCURLs, timeout, a.logger)
	if err != nil {
		a.logger.WarnContext(ctx, "zama unreachable", slog.String("error", err.Error()))
	} else {
		defer zama.Close()
		clients = append(clients, zama)
	}

	for _, c := range clients {
		attrs := []any{
			slog.String("chain", c.Name),
			slog.String("chain_id", c.ChainID.String()),
			slog.Uint64("block", c.Block),
		}
		if deps.Credential != nil {
			callCtx, cancel := context.WithTimeout(ctx, a.cfg.Monitoring.CallTimeout.Duration)
			bal, err := chain.Balance(callCtx, c, deps.Credential.Address)
			cancel()
			if err == nil {
				attrs = append(attrs, slog.String("balance", bal.StringFixed(6)))
			}
		}
		a.logger.InfoContext(ctx, "chain status", attrs...)
	}

	if deps.Credential == nil {
		a.logger.WarnContext(ctx, "no private key configured, running read-only")
	} else {
		a.logger.InfoContext(ctx, "wallet", slog.String("address", deps.Credential.String()))
	}
	a.logger.InfoContext(ctx, "configuration", slog.Any("config", config.RedactedConfig(a.cfg)))
	return nil
}

// PoolsMode prints each venue's anchor pools with reserves and the status of
// every confidential pool.
func (a *App) PoolsMode(ctx context.Context, deps *Dependencies) error {
	connector := NewConnector(a.cfg, deps.Credential, nil, nil, nil, a.logger)
	if err := connector.Connect(ctx); err != nil {
		return fmt.Errorf("app: pools: %w", err)
	}
	defer connector.Close()

	registry := connector.Registry()
	tokens := tokenRefs(a.cfg.Tokens)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VENUE\tPAIR\tADDRESS\tRESERVE0\tRESERVE1")
	for _, v := range registry.Venues() {
		pools := v.Pools(ctx, v.Anchor(), tokens)
		if len(pools) > poolsPerVenue {
			pools = pools[:poolsPerVenue]
		}
		if len(pools) == 0 {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\n", v.Name())
			continue
		}
		for _, p := range pools {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Venue, p.Pair, p.Address, p.Reserves.Reserve0, p.Reserves.Reserve1)
		}
	}
	fmt.Fprintln(tw)

	statusCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fmt.Fprintln(tw, "POOL\tCHAIN\tADDRESS\tSTATUS")
	for _, p := range registry.PoolStatuses(statusCtx) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Chain, p.Address, p.Status)
	}
	return tw.Flush()
}

func venueNames(venues []config.VenueConfig) []string {
	names := make([]string, len(venues))
	for i, v := range venues {
		names[i] = v.Name
	}
	return names
}
