package scanloop

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

type connectFunc func(ctx context.Context) error

func (f connectFunc) Connect(ctx context.Context) error { return f(ctx) }

type scriptScanner struct {
	steps []func() (domain.ScanReport, error)
	calls int
}

func (s *scriptScanner) Scan(context.Context) (domain.ScanReport, error) {
	i := s.calls
	s.calls++
	if i < len(s.steps) {
		return s.steps[i]()
	}
	return domain.ScanReport{}, nil
}

type recObserver struct {
	stats  []domain.ScanStats
	errors []error
}

func (o *recObserver) OnStats(_ context.Context, s domain.ScanStats) { o.stats = append(o.stats, s) }
func (o *recObserver) OnScanError(_ context.Context, err error)      { o.errors = append(o.errors, err) }

type recSleeper struct{ slept []time.Duration }

func (r *recSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return ctx.Err()
}

func okConnect(context.Context) error { return nil }

func newController(sc Scanner, obs Observer, sl *recSleeper, every int) *Controller {
	return NewController(Options{
		Config:    Config{ScanInterval: 10 * time.Second, BackoffInterval: 30 * time.Second, StatsEvery: every},
		Connector: connectFunc(okConnect),
		Scanner:   sc,
		Observer:  obs,
		Sleeper:   sl.sleep,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func profitable(pct float64) domain.ScanReport {
	return domain.ScanReport{
		Profitable: []domain.CandidateRecord{{ProfitPct: pct}},
		Decisions: []domain.ExecutionDecision{{
			Outcome:   domain.OutcomeWouldExecute,
			Candidate: domain.CandidateRecord{ProfitPct: pct},
		}},
		CompletedAt: time.Unix(100, 0),
	}
}

func TestController_HappyPathTransitions(t *testing.T) {
	sl := &recSleeper{}
	sc := &scriptScanner{steps: []func() (domain.ScanReport, error){
		func() (domain.ScanReport, error) { return profitable(0.6), nil },
	}}
	c := newController(sc, nil, sl, 10)
	ctx := context.Background()

	assert.Equal(t, Connecting, c.State())
	require.NoError(t, c.Step(ctx))
	assert.Equal(t, Scanning, c.State())

	require.NoError(t, c.Step(ctx))
	assert.Equal(t, Sleeping, c.State())
	s := c.Stats()
	assert.EqualValues(t, 1, s.Scans)
	assert.EqualValues(t, 1, s.OpportunitiesFound)
	assert.EqualValues(t, 1, s.WouldExecute)
	assert.InDelta(t, 0.006, s.SimulatedProfit, 1e-12)
	assert.Len(t, c.LastReport().Profitable, 1)

	require.NoError(t, c.Step(ctx))
	assert.Equal(t, Scanning, c.State())
	assert.Equal(t, []time.Duration{10 * time.Second}, sl.slept)
}

func TestController_ScanFailureBacksOff(t *testing.T) {
	sl := &recSleeper{}
	obs := &recObserver{}
	sc := &scriptScanner{steps: []func() (domain.ScanReport, error){
		func() (domain.ScanReport, error) { return domain.ScanReport{}, errors.New("rpc down") },
		func() (domain.ScanReport, error) { panic("bad math") },
	}}
	c := newController(sc, obs, sl, 10)
	ctx := context.Background()

	require.NoError(t, c.Step(ctx)) // connect
	require.NoError(t, c.Step(ctx)) // scan fails
	assert.Equal(t, Backoff, c.State())
	assert.Error(t, c.LastError())

	require.NoError(t, c.Step(ctx)) // backoff sleep
	assert.Equal(t, Scanning, c.State())
	assert.Equal(t, []time.Duration{30 * time.Second}, sl.slept)

	require.NoError(t, c.Step(ctx)) // scan panics
	assert.Equal(t, Backoff, c.State())
	assert.EqualValues(t, 2, c.Stats().Failures)
	require.Len(t, obs.errors, 2)
	assert.Contains(t, obs.errors[1].Error(), "panicked")
}

func TestController_ConnectFailureIsFatal(t *testing.T) {
	c := NewController(Options{
		Connector: connectFunc(func(context.Context) error { return domain.ErrConnectivity }),
		Scanner:   &scriptScanner{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	err := c.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnectivity)
	assert.Equal(t, Stopped, c.State())
}

func TestController_StatsEveryN(t *testing.T) {
	obs := &recObserver{}
	c := newController(&scriptScanner{}, obs, &recSleeper{}, 2)
	ctx := context.Background()

	require.NoError(t, c.Step(ctx))
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Step(ctx)) // scan
		require.NoError(t, c.Step(ctx)) // sleep
	}
	require.Len(t, obs.stats, 2)
	assert.EqualValues(t, 2, obs.stats[0].Scans)
	assert.EqualValues(t, 4, obs.stats[1].Scans)
}

func TestController_CancelFlushesAndReturnsCanceled(t *testing.T) {
	obs := &recObserver{}
	ctx, cancel := context.WithCancel(context.Background())
	sc := &scriptScanner{steps: []func() (domain.ScanReport, error){
		func() (domain.ScanReport, error) { return profitable(1), nil },
		func() (domain.ScanReport, error) {
			cancel()
			return domain.ScanReport{}, nil
		},
	}}
	c := newController(sc, obs, &recSleeper{}, 10)

	err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Stopped, c.State())
	require.Len(t, obs.stats, 1, "final stats flushed once")
	assert.EqualValues(t, 2, obs.stats[0].Scans)
	assert.InDelta(t, 0.01, obs.stats[0].SimulatedProfit, 1e-12)

	assert.ErrorIs(t, c.Step(ctx), context.Canceled, "stopped is terminal")
}

func TestController_CountsOpportunitiesBeyondReportedPrefix(t *testing.T) {
	sc := &scriptScanner{steps: []func() (domain.ScanReport, error){
		func() (domain.ScanReport, error) {
			r := profitable(0.6)
			r.ProfitableCount = 12
			return r, nil
		},
	}}
	c := newController(sc, nil, &recSleeper{}, 10)
	require.NoError(t, c.Step(context.Background()))
	require.NoError(t, c.Step(context.Background()))
	assert.EqualValues(t, 12, c.Stats().OpportunitiesFound)
}

func TestController_SkippedScansCounted(t *testing.T) {
	sc := &scriptScanner{steps: []func() (domain.ScanReport, error){
		func() (domain.ScanReport, error) { return domain.ScanReport{Skipped: true}, nil },
	}}
	c := newController(sc, nil, &recSleeper{}, 10)
	require.NoError(t, c.Step(context.Background()))
	require.NoError(t, c.Step(context.Background()))
	assert.EqualValues(t, 1, c.Stats().SkippedScans)
}

func TestContextSleep(t *testing.T) {
	require.NoError(t, ContextSleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ContextSleep(ctx, time.Hour), context.Canceled)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "backoff", Backoff.String())
	assert.Equal(t, "state(9)", State(9).String())
}
