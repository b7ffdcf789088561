package arbitrage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokA = domain.TokenRef{Symbol: "A", Address: common.HexToAddress("0xa")}
	tokB = domain.TokenRef{Symbol: "B", Address: common.HexToAddress("0xb")}
	tokC = domain.TokenRef{Symbol: "C", Address: common.HexToAddress("0xc")}
	tokD = domain.TokenRef{Symbol: "D", Address: common.HexToAddress("0xd")}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rateQuoter quotes amount*rate, with 1.0 for any pair not listed.
type rateQuoter struct {
	rates map[[2]string]float64
	fail  map[[2]string]error
	calls int
}

func (q *rateQuoter) quote(_ context.Context, in, out domain.TokenRef, amount float64) (float64, error) {
	q.calls++
	key := [2]string{in.Symbol, out.Symbol}
	if err := q.fail[key]; err != nil {
		return 0, err
	}
	rate, ok := q.rates[key]
	if !ok {
		rate = 1.0
	}
	return amount * rate, nil
}

func triangular(rate float64) []domain.Candidate {
	q := &rateQuoter{rates: map[[2]string]float64{{"A", "B"}: rate}}
	return FindTriangular(context.Background(), "v", q.quote, []domain.TokenRef{tokA, tokB, tokC}, discardLogger())
}

func TestFindTriangular_Thresholds(t *testing.T) {
	// Exactly 0.1% is not emitted.
	assert.Empty(t, triangular(1.001))

	// Just above 0.1%: every rotation of the cycle, none profitable.
	cands := triangular(1.0010001)
	require.Len(t, cands, 3)
	for _, c := range cands {
		assert.InDelta(t, 0.10001, c.ProfitPct(), 1e-6)
		assert.False(t, c.Profitable())
	}

	// Just above 0.3%: profitable.
	cands = triangular(1.0030001)
	require.Len(t, cands, 3)
	for _, c := range cands {
		assert.True(t, c.Profitable())
	}
}

func TestFindTriangular_ProfitMatchesFinalAmount(t *testing.T) {
	cands := triangular(1.02)
	require.NotEmpty(t, cands)
	for _, c := range cands {
		tri := c.(*domain.TriangularCandidate)
		assert.InDelta(t, 100*(tri.OutputAmount-1), tri.ProfitPct(), 1e-9)
		require.Len(t, tri.Path, 4)
		assert.Equal(t, tri.Path[0], tri.Path[3])
		require.Len(t, tri.Legs, 3)
		assert.Equal(t, tri.Legs[0].AmountOut, tri.Legs[1].AmountIn)
	}
}

func TestFindTriangular_FailingLegOnlyDropsItsPaths(t *testing.T) {
	q := &rateQuoter{
		rates: map[[2]string]float64{{"A", "C"}: 1.005},
		fail:  map[[2]string]error{{"A", "B"}: domain.NewQueryError("v", "getAmountsOut", errors.New("reset"))},
	}
	cands := FindTriangular(context.Background(), "v", q.quote, []domain.TokenRef{tokA, tokB, tokC}, discardLogger())

	// The A->C->B->A cycle survives in all three rotations.
	require.Len(t, cands, 3)
	for _, c := range cands {
		assert.InDelta(t, 0.5, c.ProfitPct(), 1e-9)
	}
}

func TestFindTriangular_NeedsThreeSetTokens(t *testing.T) {
	q := &rateQuoter{rates: map[[2]string]float64{{"A", "B"}: 1.5}}
	unset := domain.TokenRef{Symbol: "Z"}
	cands := FindTriangular(context.Background(), "v", q.quote, []domain.TokenRef{tokA, tokB, unset}, discardLogger())
	assert.Empty(t, cands)
	assert.Zero(t, q.calls)
}

func TestFindCrossVenue(t *testing.T) {
	prices := map[string]float64{"a": 1.05, "b": 1.00}
	cands := FindCrossVenue(prices, []string{"a", "b"}, tokA, tokB)
	require.Len(t, cands, 1)

	c := cands[0].(*domain.CrossVenueCandidate)
	assert.Equal(t, "b", c.BuyVenue)
	assert.Equal(t, "a", c.SellVenue)
	assert.InDelta(t, 5.0, c.ProfitPct(), 1e-9)
	assert.True(t, c.Profitable())
}

func TestFindCrossVenue_EdgeCases(t *testing.T) {
	assert.Empty(t, FindCrossVenue(map[string]float64{"a": 1.0}, []string{"a", "b"}, tokA, tokB))
	assert.Empty(t, FindCrossVenue(map[string]float64{"a": 1.0, "b": 1.0}, []string{"a", "b"}, tokA, tokB))
	assert.Empty(t, FindCrossVenue(map[string]float64{"a": 1.0005, "b": 1.0}, []string{"a", "b"}, tokA, tokB))

	cands := FindCrossVenue(map[string]float64{"a": 1.0, "b": 1.01, "c": 1.02}, []string{"a", "b", "c"}, tokA, tokB)
	require.Len(t, cands, 3)
	assert.Equal(t, "a", cands[0].(*domain.CrossVenueCandidate).BuyVenue)
	assert.Equal(t, "c", cands[1].(*domain.CrossVenueCandidate).SellVenue)
}

type fakeVenues struct {
	names  []string
	q      *rateQuoter
	prices map[string]float64
}

func (f *fakeVenues) Quote(ctx context.Context, _ string, in, out domain.TokenRef, amount float64) (float64, error) {
	return f.q.quote(ctx, in, out, amount)
}
func (f *fakeVenues) QuoteAll(context.Context, domain.TokenRef, domain.TokenRef) map[string]float64 {
	return f.prices
}
func (f *fakeVenues) VenueNames() []string { return f.names }

func TestTriangular_UsesFirstSetTokens(t *testing.T) {
	fv := &fakeVenues{names: []string{"v1", "v2"}, q: &rateQuoter{rates: map[[2]string]float64{{"A", "B"}: 1.01}}}
	s := NewTriangular(fv, nil, []domain.TokenRef{{Symbol: "X"}, tokA, tokB, tokC, tokD}, 3, discardLogger())

	assert.Equal(t, []domain.TokenRef{tokA, tokB, tokC}, s.Tokens())

	cands, err := s.Detect(context.Background())
	require.NoError(t, err)
	// Three rotations on each of two venues.
	require.Len(t, cands, 6)
	assert.Equal(t, "v1", cands[0].(*domain.TriangularCandidate).Venue)
	assert.Equal(t, "v2", cands[5].(*domain.TriangularCandidate).Venue)
}

type stubStrategy struct {
	name  string
	cands []domain.Candidate
	err   error
	boom  bool
}

func (s stubStrategy) Name() string { return s.name }
func (s stubStrategy) Detect(context.Context) ([]domain.Candidate, error) {
	if s.boom {
		panic("strategy exploded")
	}
	return s.cands, s.err
}

func TestDetector_MergesInStrategyOrder(t *testing.T) {
	c1 := &domain.CrossVenueCandidate{ID: "1", Profit: 0.002}
	c2 := &domain.TriangularCandidate{ID: "2", Profit: 0.004}
	c3 := &domain.TriangularCandidate{ID: "3", Profit: 0.001}

	d := NewDetector([]Strategy{
		stubStrategy{name: "first", cands: []domain.Candidate{c1}},
		stubStrategy{name: "failing", err: errors.New("rpc down")},
		stubStrategy{name: "panicking", boom: true},
		stubStrategy{name: "last", cands: []domain.Candidate{c2, c3}},
	}, discardLogger())

	got := d.Detect(context.Background())
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].CandidateID())
	assert.Equal(t, "2", got[1].CandidateID())
	assert.Equal(t, "3", got[2].CandidateID())
}

func TestPartitionRankTop(t *testing.T) {
	cands := []domain.Candidate{
		&domain.TriangularCandidate{ID: "low", Profit: 0.0015},
		&domain.TriangularCandidate{ID: "mid", Profit: 0.004},
		&domain.CrossVenueCandidate{ID: "high", Profit: 0.05},
		&domain.CrossVenueCandidate{ID: "mid2", Profit: 0.004},
	}

	profitable, logged := Partition(cands)
	require.Len(t, profitable, 3)
	require.Len(t, logged, 1)
	assert.Equal(t, "low", logged[0].CandidateID())

	ranked := Rank(profitable)
	ids := []string{}
	for _, c := range ranked {
		ids = append(ids, c.CandidateID())
	}
	assert.Equal(t, []string{"high", "mid", "mid2"}, ids)
	assert.Equal(t, "mid", profitable[0].CandidateID(), "rank must not reorder its input")

	assert.Len(t, Top(ranked, 2), 2)
	assert.Len(t, Top(ranked, 0), 3)
	assert.Len(t, Top(ranked, 10), 3)
}

func TestRegistry_Select(t *testing.T) {
	r := NewRegistry()
	r.Register(stubStrategy{name: "triangular"})
	r.Register(stubStrategy{name: "cross_venue"})

	got, err := r.Select([]string{"cross_venue", "triangular"})
	require.NoError(t, err)
	assert.Equal(t, "cross_venue", got[0].Name())
	assert.Equal(t, []string{"cross_venue", "triangular"}, r.List())

	_, err = r.Select([]string{"sandwich"})
	assert.Error(t, err)
}
