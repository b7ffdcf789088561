// Package notify pushes scan events to operators over Telegram and Discord.
// Events are filtered by type, repeated candidates are suppressed for a window
// and the overall send rate can be capped through a shared limiter.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// Event types.
const (
	EventOpportunity  = "opportunity"
	EventWouldExecute = "would_execute"
	EventScanError    = "scan_error"
	EventStats        = "stats"
)

const rateKey = "notify"

// Options configures a Notifier.
type Options struct {
	Senders      []Sender
	Events       []string // empty means all
	DedupWindow  time.Duration
	Limiter      domain.RateLimiter // optional
	MaxPerMinute int
	Logger       *slog.Logger
}

// Notifier dispatches events to every sender.
type Notifier struct {
	senders  []Sender
	events   map[string]bool
	dedup    *Dedup
	limiter  domain.RateLimiter
	maxPerMn int
	logger   *slog.Logger
}

func NewNotifier(opts Options) *Notifier {
	allowed := make(map[string]bool, len(opts.Events))
	for _, e := range opts.Events {
		allowed[strings.TrimSpace(e)] = true
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		senders:  opts.Senders,
		events:   allowed,
		dedup:    NewDedup(opts.DedupWindow),
		limiter:  opts.Limiter,
		maxPerMn: opts.MaxPerMinute,
		logger:   logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether any sender is configured.
func (n *Notifier) Enabled() bool { return len(n.senders) > 0 }

// Notify sends title and message for event. key, when non-empty, is used to
// suppress repeats inside the dedup window.
func (n *Notifier) Notify(ctx context.Context, event, key, title, message string) error {
	if !n.Enabled() {
		return nil
	}
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	if key != "" && n.dedup.IsDuplicate(event+"|"+key) {
		n.logger.DebugContext(ctx, "duplicate suppressed", slog.String("key", key))
		return nil
	}
	if n.limiter != nil && n.maxPerMn > 0 {
		ok, err := n.limiter.Allow(ctx, rateKey, n.maxPerMn, time.Minute)
		if err != nil {
			// Fail open.
			n.logger.WarnContext(ctx, "rate limiter unavailable", slog.String("error", err.Error()))
		} else if !ok {
			n.logger.WarnContext(ctx, "notification rate limited", slog.String("event", event))
			return nil
		}
	}
	return n.dispatch(ctx, title, message)
}

// Opportunity announces a profitable candidate.
func (n *Notifier) Opportunity(ctx context.Context, c domain.CandidateRecord) error {
	return n.Notify(ctx, EventOpportunity, fingerprint(c),
		fmt.Sprintf("Opportunity %s %.3f%%", c.Kind, c.ProfitPct),
		describe(c))
}

// Decision announces a would-execute decision. Other outcomes are ignored.
func (n *Notifier) Decision(ctx context.Context, d domain.ExecutionDecision) error {
	if d.Outcome != domain.OutcomeWouldExecute {
		return nil
	}
	return n.Notify(ctx, EventWouldExecute, fingerprint(d.Candidate),
		fmt.Sprintf("Would execute %s %.3f%%", d.Candidate.Kind, d.Candidate.ProfitPct),
		fmt.Sprintf("%s\ngas: %.6f (fallback=%t)", describe(d.Candidate), d.GasCost, d.GasFallback))
}

// ScanError announces a failed scan.
func (n *Notifier) ScanError(ctx context.Context, err error) error {
	return n.Notify(ctx, EventScanError, domain.FailureKind(err), "Scan failed", err.Error())
}

// Stats posts the periodic summary.
func (n *Notifier) Stats(ctx context.Context, s domain.ScanStats) error {
	return n.Notify(ctx, EventStats, "", "Scan summary",
		fmt.Sprintf("scans: %d\nopportunities: %d\nwould execute: %d\nfailures: %d\nsimulated profit: %.4f%%",
			s.Scans, s.OpportunitiesFound, s.WouldExecute, s.Failures, s.SimulatedProfit*100))
}

func fingerprint(c domain.CandidateRecord) string {
	return string(c.Kind) + ":" + c.Venue + ":" + c.BuyVenue + ">" + c.SellVenue + ":" + c.Route
}

func describe(c domain.CandidateRecord) string {
	if c.Kind == domain.KindCrossVenue {
		return fmt.Sprintf("%s buy on %s @ %.6f, sell on %s @ %.6f", c.Route, c.BuyVenue, c.BuyPrice, c.SellVenue, c.SellPrice)
	}
	return fmt.Sprintf("%s on %s: %.6f -> %.6f", c.Route, c.Venue, c.Input, c.Output)
}

// dispatch sends to every sender; one failure does not stop the others.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
