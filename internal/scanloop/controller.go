// Package scanloop drives the perpetual scan cycle as an explicit state
// machine: Connecting, then Scanning and Sleeping in turn, with Backoff after a
// failed scan and Stopped once the context is cancelled.
package scanloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// State is a controller state.
type State int

const (
	Connecting State = iota
	Scanning
	Sleeping
	Backoff
	Stopped
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Scanning:
		return "scanning"
	case Sleeping:
		return "sleeping"
	case Backoff:
		return "backoff"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Connector establishes chain connectivity. A failure is fatal.
type Connector interface {
	Connect(ctx context.Context) error
}

// Scanner performs one full scan.
type Scanner interface {
	Scan(ctx context.Context) (domain.ScanReport, error)
}

// Observer receives periodic stats and scan failures. Implementations should
// not block for long.
type Observer interface {
	OnStats(ctx context.Context, s domain.ScanStats)
	OnScanError(ctx context.Context, err error)
}

// Sleeper waits for d or until ctx is done, returning ctx.Err() in that case.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config holds loop timing.
type Config struct {
	ScanInterval    time.Duration
	BackoffInterval time.Duration
	StatsEvery      int
}

// Options wires a Controller. Observer, Sleeper and Now are optional.
type Options struct {
	Config    Config
	Connector Connector
	Scanner   Scanner
	Observer  Observer
	Sleeper   Sleeper
	Now       func() time.Time
	Logger    *slog.Logger
}

// Controller is the scan loop. Step and Run must be called from a single
// goroutine; Stats, State and LastReport may be read concurrently.
type Controller struct {
	cfg       Config
	connector Connector
	scanner   Scanner
	observer  Observer
	sleep     Sleeper
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.RWMutex
	state   State
	stats   domain.ScanStats
	last    domain.ScanReport
	lastErr error
}

func NewController(opts Options) *Controller {
	c := &Controller{
		cfg:       opts.Config,
		connector: opts.Connector,
		scanner:   opts.Scanner,
		observer:  opts.Observer,
		sleep:     opts.Sleeper,
		now:       opts.Now,
		logger:    opts.Logger,
		state:     Connecting,
	}
	if c.sleep == nil {
		c.sleep = ContextSleep
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.cfg.StatsEvery <= 0 {
		c.cfg.StatsEvery = 10
	}
	c.logger = c.logger.With(slog.String("component", "scanloop"))
	return c
}

// Run steps until the loop stops. It returns the fatal connect error, or
// context.Canceled after a clean shutdown.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := c.Step(ctx); err != nil {
			return err
		}
	}
}

// Step performs exactly one state action and transitions. It returns nil while
// the loop should continue.
func (c *Controller) Step(ctx context.Context) error {
	switch c.State() {
	case Connecting:
		return c.connect(ctx)
	case Scanning:
		if ctx.Err() != nil {
			return c.stop(ctx)
		}
		c.scan(ctx)
		return nil
	case Sleeping:
		if ctx.Err() != nil {
			return c.stop(ctx)
		}
		return c.wait(ctx, c.cfg.ScanInterval)
	case Backoff:
		return c.wait(ctx, c.cfg.BackoffInterval)
	default:
		return context.Canceled
	}
}

func (c *Controller) connect(ctx context.Context) error {
	c.mu.Lock()
	c.stats.StartedAt = c.now().UTC()
	c.mu.Unlock()

	if err := c.connector.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return c.stop(ctx)
		}
		c.logger.ErrorContext(ctx, "connect failed", slog.String("error", err.Error()))
		c.setState(Stopped)
		return fmt.Errorf("scanloop: connect: %w", err)
	}
	c.logger.InfoContext(ctx, "connected, starting scans",
		slog.Duration("scan_interval", c.cfg.ScanInterval),
		slog.Duration("backoff_interval", c.cfg.BackoffInterval),
	)
	c.setState(Scanning)
	return nil
}

func (c *Controller) scan(ctx context.Context) {
	c.mu.Lock()
	c.stats.Scans++
	n := c.stats.Scans
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "scan started", slog.Int64("scan", n))
	report, err := c.safeScan(ctx)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// Cancelled mid-scan; Sleeping will notice and stop.
			c.setState(Sleeping)
			return
		}
		c.mu.Lock()
		c.stats.Failures++
		c.lastErr = err
		c.state = Backoff
		c.mu.Unlock()
		c.logger.ErrorContext(ctx, "scan failed, backing off",
			slog.Int64("scan", n),
			slog.String("error", err.Error()),
			slog.Duration("backoff", c.cfg.BackoffInterval),
		)
		if c.observer != nil {
			c.observer.OnScanError(ctx, err)
		}
		return
	}

	c.mu.Lock()
	c.fold(report)
	snapshot := c.stats
	c.last = report
	c.lastErr = nil
	c.state = Sleeping
	c.mu.Unlock()

	if n%int64(c.cfg.StatsEvery) == 0 {
		c.emit(ctx, snapshot, "scan summary")
	}
}

func (c *Controller) safeScan(ctx context.Context) (report domain.ScanReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scanloop: scan panicked: %v", r)
		}
	}()
	return c.scanner.Scan(ctx)
}

// fold adds a report to the stats. Caller holds mu.
func (c *Controller) fold(r domain.ScanReport) {
	if r.Skipped {
		c.stats.SkippedScans++
	}
	c.stats.OpportunitiesFound += int64(r.OpportunityCount())
	c.stats.WouldExecute += int64(r.WouldExecuteCount())
	c.stats.SimulatedProfit += r.ProfitDelta()
	c.stats.LastScanAt = r.CompletedAt
	if c.stats.LastScanAt.IsZero() {
		c.stats.LastScanAt = c.now().UTC()
	}
}

func (c *Controller) wait(ctx context.Context, d time.Duration) error {
	if err := c.sleep(ctx, d); err != nil {
		return c.stop(ctx)
	}
	c.setState(Scanning)
	return nil
}

// stop flushes final stats and enters Stopped.
func (c *Controller) stop(ctx context.Context) error {
	c.mu.Lock()
	c.state = Stopped
	snapshot := c.stats
	c.mu.Unlock()

	// The caller's context is done; give the sink a short-lived one.
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	c.emit(flushCtx, snapshot, "final stats")
	return context.Canceled
}

func (c *Controller) emit(ctx context.Context, s domain.ScanStats, msg string) {
	c.logger.InfoContext(ctx, msg,
		slog.Int64("scans", s.Scans),
		slog.Int64("opportunities_found", s.OpportunitiesFound),
		slog.Int64("would_execute", s.WouldExecute),
		slog.Int64("failures", s.Failures),
		slog.Int64("skipped_scans", s.SkippedScans),
		slog.Float64("simulated_profit_pct", s.SimulatedProfit*100),
	)
	if c.observer != nil {
		c.observer.OnStats(ctx, s)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() domain.ScanStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// LastReport returns the most recent successful scan report.
func (c *Controller) LastReport() domain.ScanReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// LastError returns the error of the last scan, or nil if it succeeded.
func (c *Controller) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}
