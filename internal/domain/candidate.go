package domain

import (
	"fmt"
	"strings"
	"time"
)

// Profit thresholds in percent. These are fixed and not configurable.
const (
	EmitThresholdPct       = 0.1
	ProfitableThresholdPct = 0.3
)

// CandidateKind tags the variant of a Candidate.
type CandidateKind string

const (
	KindTriangular CandidateKind = "triangular"
	KindCrossVenue CandidateKind = "cross_venue"
)

// Candidate is a detected arbitrage opportunity. The set of implementations
// is closed: *TriangularCandidate and *CrossVenueCandidate.
type Candidate interface {
	CandidateID() string
	Kind() CandidateKind
	// ProfitFraction is (output/input) - 1.
	ProfitFraction() float64
	ProfitPct() float64
	Profitable() bool
	// Fingerprint identifies the route regardless of when it was seen.
	Fingerprint() string
	Detected() time.Time

	sealed()
}

// ShouldEmit reports whether a profit percentage is large enough to become a
// candidate at all.
func ShouldEmit(profitPct float64) bool {
	return profitPct > EmitThresholdPct
}

// IsProfitable reports whether a profit percentage clears the profitable bar.
func IsProfitable(profitPct float64) bool {
	return profitPct > ProfitableThresholdPct
}

// LegQuote is one hop of a triangular path.
type LegQuote struct {
	TokenIn   TokenRef `json:"token_in"`
	TokenOut  TokenRef `json:"token_out"`
	AmountIn  float64  `json:"amount_in"`
	AmountOut float64  `json:"amount_out"`
}

// TriangularCandidate is a three-hop cycle on a single venue.
type TriangularCandidate struct {
	ID           string     `json:"id"`
	Venue        string     `json:"venue"`
	Path         []TokenRef `json:"path"`
	Legs         []LegQuote `json:"legs"`
	InputAmount  float64    `json:"input_amount"`
	OutputAmount float64    `json:"output_amount"`
	Profit       float64    `json:"profit"`
	DetectedAt   time.Time  `json:"detected_at"`
}

func (c *TriangularCandidate) CandidateID() string     { return c.ID }
func (c *TriangularCandidate) Kind() CandidateKind     { return KindTriangular }
func (c *TriangularCandidate) ProfitFraction() float64 { return c.Profit }
func (c *TriangularCandidate) ProfitPct() float64      { return c.Profit * 100 }
func (c *TriangularCandidate) Profitable() bool        { return IsProfitable(c.ProfitPct()) }
func (c *TriangularCandidate) Detected() time.Time     { return c.DetectedAt }
func (c *TriangularCandidate) sealed()                 {}

func (c *TriangularCandidate) Fingerprint() string {
	return fmt.Sprintf("tri:%s:%s", c.Venue, c.PathString())
}

// PathString renders the path as "A->B->C->A".
func (c *TriangularCandidate) PathString() string {
	parts := make([]string, len(c.Path))
	for i, t := range c.Path {
		parts[i] = t.String()
	}
	return strings.Join(parts, "->")
}

// CrossVenueCandidate is a price gap for one pair between two venues.
type CrossVenueCandidate struct {
	ID         string    `json:"id"`
	TokenIn    TokenRef  `json:"token_in"`
	TokenOut   TokenRef  `json:"token_out"`
	BuyVenue   string    `json:"buy_venue"`
	SellVenue  string    `json:"sell_venue"`
	BuyPrice   float64   `json:"buy_price"`
	SellPrice  float64   `json:"sell_price"`
	Profit     float64   `json:"profit"`
	DetectedAt time.Time `json:"detected_at"`
}

func (c *CrossVenueCandidate) CandidateID() string     { return c.ID }
func (c *CrossVenueCandidate) Kind() CandidateKind     { return KindCrossVenue }
func (c *CrossVenueCandidate) ProfitFraction() float64 { return c.Profit }
func (c *CrossVenueCandidate) ProfitPct() float64      { return c.Profit * 100 }
func (c *CrossVenueCandidate) Profitable() bool        { return IsProfitable(c.ProfitPct()) }
func (c *CrossVenueCandidate) Detected() time.Time     { return c.DetectedAt }
func (c *CrossVenueCandidate) sealed()                 {}

func (c *CrossVenueCandidate) Fingerprint() string {
	return fmt.Sprintf("xv:%s/%s:%s>%s", c.TokenIn, c.TokenOut, c.BuyVenue, c.SellVenue)
}

// PairString renders the pair as "IN/OUT".
func (c *CrossVenueCandidate) PairString() string {
	return c.TokenIn.String() + "/" + c.TokenOut.String()
}

// CandidateRecord is the flat form of a Candidate used for storage, the
// signal bus and the HTTP API.
type CandidateRecord struct {
	ID         string        `json:"id"`
	Kind       CandidateKind `json:"kind"`
	Venue      string        `json:"venue,omitempty"`
	Route      string        `json:"route"`
	BuyVenue   string        `json:"buy_venue,omitempty"`
	SellVenue  string        `json:"sell_venue,omitempty"`
	BuyPrice   float64       `json:"buy_price,omitempty"`
	SellPrice  float64       `json:"sell_price,omitempty"`
	Input      float64       `json:"input,omitempty"`
	Output     float64       `json:"output,omitempty"`
	ProfitPct  float64       `json:"profit_pct"`
	Profitable bool          `json:"profitable"`
	DetectedAt time.Time     `json:"detected_at"`
}

// Describe flattens a candidate. It panics on an unknown variant, which can
// only happen if a new Candidate type is added without updating this switch.
func Describe(c Candidate) CandidateRecord {
	rec := CandidateRecord{
		ID:         c.CandidateID(),
		Kind:       c.Kind(),
		ProfitPct:  c.ProfitPct(),
		Profitable: c.Profitable(),
		DetectedAt: c.Detected(),
	}
	switch v := c.(type) {
	case *TriangularCandidate:
		rec.Venue = v.Venue
		rec.Route = v.PathString()
		rec.Input = v.InputAmount
		rec.Output = v.OutputAmount
	case *CrossVenueCandidate:
		rec.Route = v.PairString()
		rec.BuyVenue = v.BuyVenue
		rec.SellVenue = v.SellVenue
		rec.BuyPrice = v.BuyPrice
		rec.SellPrice = v.SellPrice
	default:
		panic(fmt.Sprintf("domain: unknown candidate type %T", c))
	}
	return rec
}
