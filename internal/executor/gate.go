// Package executor decides what would happen to each profitable candidate.
// Nothing here signs or broadcasts a transaction.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/privpoolbot/internal/chain"
	"github.com/alanyoungcy/privpoolbot/internal/crypto"
	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// FallbackGasCost is used, in ether, when the gas price cannot be read.
const FallbackGasCost = 0.001

// GateConfig wires a Gate.
type GateConfig struct {
	Credential         *crypto.Credential // nil means simulate only
	MinProfitThreshold float64            // fraction, e.g. 0.005 for 0.5%
	GasLimit           uint64
	GasPricer          chain.GasPricer
	CallTimeout        time.Duration
	Ledger             *Ledger
	Logger             *slog.Logger
	Now                func() time.Time
}

// Gate turns candidates into execution decisions.
type Gate struct {
	cfg    GateConfig
	logger *slog.Logger
}

// NewGate builds a gate. A nil Ledger gets an unjournaled one.
func NewGate(cfg GateConfig) *Gate {
	if cfg.Ledger == nil {
		cfg.Ledger = NewLedger(nil)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Gate{
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "gate")),
	}
}

// Ledger returns the gate's ledger.
func (g *Gate) Ledger() *Ledger { return g.cfg.Ledger }

// Simulating reports whether no credential is loaded.
func (g *Gate) Simulating() bool { return g.cfg.Credential == nil }

// ThresholdPct is the minimum profit, in percent, for a would-execute.
func (g *Gate) ThresholdPct() float64 { return g.cfg.MinProfitThreshold * 100 }

// Decide evaluates one candidate. It never returns an error; failures and
// panics become an OutcomeFailed decision.
func (g *Gate) Decide(ctx context.Context, c domain.Candidate) (d domain.ExecutionDecision) {
	d = domain.ExecutionDecision{
		ID:           uuid.NewString(),
		ThresholdPct: g.ThresholdPct(),
		DecidedAt:    g.cfg.Now().UTC(),
	}
	defer func() {
		if r := recover(); r != nil {
			d.Outcome = domain.OutcomeFailed
			d.Error = fmt.Sprintf("panic: %v", r)
			g.logger.ErrorContext(ctx, "gate panicked", slog.Any("panic", r))
		}
	}()

	d.Candidate = domain.Describe(c)
	pct := c.ProfitPct()

	if g.cfg.Credential == nil {
		d.Outcome = domain.OutcomeSimulatedNoKey
		d.Reason = "no_private_key"
		g.logger.InfoContext(ctx, "simulation mode, not executing",
			slog.String("kind", string(c.Kind())),
			slog.Float64("profit_pct", pct),
		)
		return d
	}

	d.GasCost, d.GasFallback = g.gasCost(ctx)

	if pct < g.ThresholdPct() {
		d.Outcome = domain.OutcomeSkippedBelowThreshold
		d.Reason = fmt.Sprintf("below_threshold: %.4f%% < %.4f%%", pct, g.ThresholdPct())
		return d
	}

	d.Outcome = domain.OutcomeWouldExecute
	if err := g.cfg.Ledger.Record(d); err != nil {
		d.Outcome = domain.OutcomeFailed
		d.Error = err.Error()
		g.logger.ErrorContext(ctx, "ledger record failed",
			slog.String("decision_id", d.ID),
			slog.String("error", err.Error()),
		)
		return d
	}

	g.logger.InfoContext(ctx, "would execute",
		slog.String("kind", string(c.Kind())),
		slog.String("fingerprint", c.Fingerprint()),
		slog.Float64("profit_pct", pct),
		slog.Float64("gas_cost", d.GasCost),
		slog.Float64("simulated_profit", g.cfg.Ledger.SimulatedProfit()),
	)
	return d
}

func (g *Gate) gasCost(ctx context.Context) (float64, bool) {
	if g.cfg.GasPricer == nil {
		return FallbackGasCost, true
	}
	callCtx := ctx
	if g.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
	}
	cost, err := chain.GasCost(callCtx, g.cfg.GasPricer, g.cfg.GasLimit)
	if err != nil {
		g.logger.WarnContext(ctx, "gas estimate failed, using fallback",
			slog.String("error", err.Error()),
			slog.Float64("fallback", FallbackGasCost),
		)
		return FallbackGasCost, true
	}
	return cost.InexactFloat64(), false
}
