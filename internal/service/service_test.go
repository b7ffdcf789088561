package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var (
	wlsk = domain.TokenRef{Symbol: "WLSK", Address: common.HexToAddress("0x1")}
	lsk  = domain.TokenRef{Symbol: "LSK", Address: common.HexToAddress("0x2")}
	usdt = domain.TokenRef{Symbol: "USDT"}
)

type mapQuoter map[[2]string]float64

func (m mapQuoter) Quote(_ context.Context, _ string, in, out domain.TokenRef, amount float64) (float64, error) {
	r, ok := m[[2]string{in.Symbol, out.Symbol}]
	if !ok {
		return 0, domain.NewQueryError("v", "getAmountsOut", errors.New("execution reverted"))
	}
	return r * amount, nil
}

type memBus struct {
	mu        sync.Mutex
	published map[string]int
	stream    int
}

func (b *memBus) Publish(_ context.Context, ch string, _ []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published == nil {
		b.published = map[string]int{}
	}
	b.published[ch]++
	return nil
}
func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }
func (b *memBus) StreamAppend(context.Context, string, []byte) error {
	b.stream++
	return nil
}
func (b *memBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

type memCache struct{ quotes []domain.PriceQuote }

func (c *memCache) SetQuote(_ context.Context, q domain.PriceQuote) error {
	c.quotes = append(c.quotes, q)
	return nil
}
func (c *memCache) GetQuote(context.Context, string, domain.TokenRef, domain.TokenRef) (domain.PriceQuote, error) {
	return domain.PriceQuote{}, domain.ErrNotFound
}
func (c *memCache) VenuePrices(context.Context, string) (map[string]float64, error) { return nil, nil }

type staticDetector []domain.Candidate

func (d staticDetector) Detect(context.Context) []domain.Candidate { return d }

type outcomeGate struct{ seen []string }

func (g *outcomeGate) Decide(_ context.Context, c domain.Candidate) domain.ExecutionDecision {
	g.seen = append(g.seen, c.CandidateID())
	return domain.ExecutionDecision{ID: "d-" + c.CandidateID(), Outcome: domain.OutcomeWouldExecute, Candidate: domain.Describe(c)}
}

type heldLocks struct{ err error }

func (l heldLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() {}, nil
}

type memDecisions struct {
	domain.DecisionStore
	inserted []domain.ExecutionDecision
}

func (m *memDecisions) Insert(_ context.Context, d domain.ExecutionDecision) error {
	m.inserted = append(m.inserted, d)
	return nil
}

func TestPriceService_ForwardAndReverse(t *testing.T) {
	q := mapQuoter{{"WLSK", "LSK"}: 1.01, {"LSK", "WLSK"}: 0.99}
	cache := &memCache{}
	bus := &memBus{}
	ps := NewPriceService(q, "liskswap", []PricePair{{wlsk, lsk}, {wlsk, usdt}, {lsk, domain.TokenRef{Symbol: "X", Address: common.HexToAddress("0x9")}}}, cache, bus, quiet())

	quotes := ps.FetchPrices(context.Background())
	require.Len(t, quotes, 2)
	assert.InDelta(t, 1.01, quotes[0].Price(), 1e-12)
	assert.Equal(t, "LSK", quotes[1].TokenIn.Symbol)
	assert.Len(t, cache.quotes, 2)
	assert.Equal(t, 2, bus.published[domain.ChannelPrices])
}

func TestPriceService_EmptyResult(t *testing.T) {
	ps := NewPriceService(mapQuoter{}, "liskswap", []PricePair{{wlsk, lsk}}, nil, nil, quiet())
	assert.Empty(t, ps.FetchPrices(context.Background()))
}

func TestScanService_NotConnected(t *testing.T) {
	s := NewScanService(ScanDeps{Gate: &outcomeGate{}}, 10, time.Minute, quiet())
	_, err := s.Scan(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnectivity)
}

func TestScanService_FiltersRanksAndGates(t *testing.T) {
	gate := &outcomeGate{}
	bus := &memBus{}
	store := &memDecisions{}
	s := NewScanService(ScanDeps{Gate: gate, Bus: bus, Decisions: store, Locks: heldLocks{}}, 2, time.Minute, quiet())
	s.Attach(nil, staticDetector{
		&domain.TriangularCandidate{ID: "small", Venue: "v", Path: []domain.TokenRef{wlsk, lsk, usdt, wlsk}, Profit: 0.002},
		&domain.TriangularCandidate{ID: "mid", Venue: "v", Path: []domain.TokenRef{wlsk, lsk, usdt, wlsk}, Profit: 0.006},
		&domain.CrossVenueCandidate{ID: "top", TokenIn: wlsk, TokenOut: lsk, Profit: 0.05},
		&domain.CrossVenueCandidate{ID: "cut", TokenIn: wlsk, TokenOut: lsk, Profit: 0.004},
	})

	report, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Candidates)
	assert.Equal(t, 3, report.ProfitableCount)
	assert.Equal(t, []string{"top", "mid", "cut"}, gate.seen)
	require.Len(t, report.Profitable, 2)
	assert.Equal(t, "top", report.Profitable[0].ID)
	assert.Equal(t, 3, report.OpportunityCount())
	assert.Equal(t, 3, report.WouldExecuteCount())
	assert.Len(t, store.inserted, 3)
	assert.Equal(t, 2, bus.published[domain.ChannelOpportunities])
	assert.Equal(t, 3, bus.published[domain.ChannelDecisions])
	assert.Equal(t, 3, bus.stream)
}

func TestScanService_GatesBeyondTopN(t *testing.T) {
	gate := &outcomeGate{}
	var cands staticDetector
	for i := range 12 {
		cands = append(cands, &domain.CrossVenueCandidate{
			ID:       fmt.Sprintf("c%02d", i),
			TokenIn:  wlsk,
			TokenOut: lsk,
			Profit:   0.004 + float64(i)/1000,
		})
	}
	s := NewScanService(ScanDeps{Gate: gate}, 10, time.Minute, quiet())
	s.Attach(nil, cands)

	report, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, gate.seen, 12)
	assert.Len(t, report.Decisions, 12)
	assert.Len(t, report.Profitable, 10)
	assert.Equal(t, 12, report.OpportunityCount())
	assert.Equal(t, "c11", gate.seen[0])
}

func TestScanService_SkipsWhenLockHeld(t *testing.T) {
	gate := &outcomeGate{}
	s := NewScanService(ScanDeps{Gate: gate, Locks: heldLocks{err: domain.ErrLockHeld}}, 10, time.Minute, quiet())
	s.Attach(nil, staticDetector{&domain.CrossVenueCandidate{ID: "x", Profit: 0.05}})

	report, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Empty(t, gate.seen)
}

func TestScanService_LockOutageStillScans(t *testing.T) {
	gate := &outcomeGate{}
	s := NewScanService(ScanDeps{Gate: gate, Locks: heldLocks{err: errors.New("redis down")}}, 10, time.Minute, quiet())
	s.Attach(nil, staticDetector{&domain.CrossVenueCandidate{ID: "x", Profit: 0.05}})

	report, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, []string{"x"}, gate.seen)
}

func TestScanService_ObserverPublishesStats(t *testing.T) {
	bus := &memBus{}
	s := NewScanService(ScanDeps{Gate: &outcomeGate{}, Bus: bus}, 10, time.Minute, quiet())
	s.OnStats(context.Background(), domain.ScanStats{Scans: 10})
	s.OnScanError(context.Background(), errors.New("x"))
	assert.Equal(t, 1, bus.published[domain.ChannelStats])
}
