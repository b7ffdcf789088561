// Package service holds the scan use cases: price observation, one full scan
// from detection through gating, and the fan-out of results to stores, the
// bus and notifications.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/arbitrage"
	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

const scanLockKey = "scan"

// Detector produces the merged candidates of one scan.
type Detector interface {
	Detect(ctx context.Context) []domain.Candidate
}

// Gate decides one candidate.
type Gate interface {
	Decide(ctx context.Context, c domain.Candidate) domain.ExecutionDecision
}

// Notifier receives operator-facing events.
type Notifier interface {
	Opportunity(ctx context.Context, c domain.CandidateRecord) error
	Decision(ctx context.Context, d domain.ExecutionDecision) error
	ScanError(ctx context.Context, err error) error
	Stats(ctx context.Context, s domain.ScanStats) error
}

// ScanDeps are the collaborators of a ScanService. Everything except Gate may
// be nil; Prices and Detector are attached on connect.
type ScanDeps struct {
	Gate      Gate
	Decisions domain.DecisionStore
	Audit     domain.AuditStore
	Bus       domain.SignalBus
	Locks     domain.LockManager
	Notifier  Notifier
}

// ScanService runs one scan per call.
type ScanService struct {
	deps    ScanDeps
	topN    int
	lockTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.RWMutex
	prices   *PriceService
	detector Detector
}

// NewScanService creates a ScanService. topN bounds the reported and
// published opportunities; <= 0 reports all of them. Gating is never bounded.
func NewScanService(deps ScanDeps, topN int, lockTTL time.Duration, logger *slog.Logger) *ScanService {
	return &ScanService{
		deps:    deps,
		topN:    topN,
		lockTTL: lockTTL,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "scan_service")),
	}
}

// Attach installs the price observer and detector once chains are connected.
func (s *ScanService) Attach(prices *PriceService, d Detector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = prices
	s.detector = d
}

func (s *ScanService) attached() (*PriceService, Detector) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices, s.detector
}

// Scan fetches prices, detects, filters, ranks and gates. A scan is skipped
// when another instance holds the scan lock.
func (s *ScanService) Scan(ctx context.Context) (domain.ScanReport, error) {
	prices, detector := s.attached()
	if detector == nil {
		return domain.ScanReport{}, fmt.Errorf("service: scan: not connected: %w", domain.ErrConnectivity)
	}
	report := domain.ScanReport{StartedAt: s.now().UTC()}

	if s.deps.Locks != nil {
		unlock, err := s.deps.Locks.Acquire(ctx, scanLockKey, s.lockTTL)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			s.logger.InfoContext(ctx, "scan lock held elsewhere, skipping")
			report.Skipped = true
			report.CompletedAt = s.now().UTC()
			return report, nil
		case err != nil:
			s.logger.WarnContext(ctx, "scan lock unavailable, scanning anyway", slog.String("error", err.Error()))
		default:
			defer unlock()
		}
	}

	if prices != nil {
		report.Prices = len(prices.FetchPrices(ctx))
	}

	cands := detector.Detect(ctx)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	report.Candidates = len(cands)

	profitable, logged := arbitrage.Partition(cands)
	for _, c := range logged {
		s.logger.DebugContext(ctx, "candidate below profit threshold",
			slog.String("fingerprint", c.Fingerprint()),
			slog.Float64("profit_pct", c.ProfitPct()),
		)
	}

	ranked := arbitrage.Rank(profitable)
	report.ProfitableCount = len(ranked)
	for _, c := range arbitrage.Top(ranked, s.topN) {
		rec := domain.Describe(c)
		report.Profitable = append(report.Profitable, rec)
		s.logger.InfoContext(ctx, "opportunity",
			slog.String("kind", string(rec.Kind)),
			slog.String("route", rec.Route),
			slog.Float64("profit_pct", rec.ProfitPct),
		)
		s.publish(ctx, domain.ChannelOpportunities, rec)
		if s.deps.Notifier != nil {
			_ = s.deps.Notifier.Opportunity(ctx, rec)
		}
	}

	// Every profitable candidate is gated, not only the reported prefix.
	for _, c := range ranked {
		d := s.deps.Gate.Decide(ctx, c)
		report.Decisions = append(report.Decisions, d)
		s.record(ctx, d)
	}

	report.CompletedAt = s.now().UTC()
	s.logger.InfoContext(ctx, "scan complete",
		slog.Int("prices", report.Prices),
		slog.Int("candidates", report.Candidates),
		slog.Int("profitable", report.ProfitableCount),
		slog.Int("would_execute", report.WouldExecuteCount()),
		slog.Duration("took", report.CompletedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// record fans a decision out to the store, bus, stream, audit log and
// notifier. Failures are logged only.
func (s *ScanService) record(ctx context.Context, d domain.ExecutionDecision) {
	if s.deps.Decisions != nil {
		if err := s.deps.Decisions.Insert(ctx, d); err != nil {
			s.logger.WarnContext(ctx, "persist decision failed",
				slog.String("decision_id", d.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	payload := s.publish(ctx, domain.ChannelDecisions, d)
	if s.deps.Bus != nil && payload != nil {
		if err := s.deps.Bus.StreamAppend(ctx, domain.StreamDecisions, payload); err != nil {
			s.logger.WarnContext(ctx, "stream append failed", slog.String("error", err.Error()))
		}
	}
	if s.deps.Audit != nil && d.Outcome != domain.OutcomeSimulatedNoKey {
		detail := map[string]any{
			"decision_id": d.ID,
			"outcome":     string(d.Outcome),
			"route":       d.Candidate.Route,
			"profit_pct":  d.Candidate.ProfitPct,
		}
		if d.Error != "" {
			detail["error"] = d.Error
		}
		if err := s.deps.Audit.Log(ctx, "decision."+string(d.Outcome), detail); err != nil {
			s.logger.WarnContext(ctx, "audit log failed", slog.String("error", err.Error()))
		}
	}
	if s.deps.Notifier != nil {
		_ = s.deps.Notifier.Decision(ctx, d)
	}
}

func (s *ScanService) publish(ctx context.Context, channel string, v any) []byte {
	if s.deps.Bus == nil {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.WarnContext(ctx, "marshal event failed", slog.String("error", err.Error()))
		return nil
	}
	if err := s.deps.Bus.Publish(ctx, channel, payload); err != nil {
		s.logger.WarnContext(ctx, "publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
	return payload
}

// OnStats publishes the periodic summary.
func (s *ScanService) OnStats(ctx context.Context, st domain.ScanStats) {
	s.publish(ctx, domain.ChannelStats, st)
	if s.deps.Notifier != nil {
		_ = s.deps.Notifier.Stats(ctx, st)
	}
}

// OnScanError reports a failed scan.
func (s *ScanService) OnScanError(ctx context.Context, err error) {
	if s.deps.Audit != nil {
		_ = s.deps.Audit.Log(ctx, "scan.failed", map[string]any{
			"error":   err.Error(),
			"failure": domain.FailureKind(err),
		})
	}
	if s.deps.Notifier != nil {
		_ = s.deps.Notifier.ScanError(ctx, err)
	}
}
