// Package arbitrage generates arbitrage candidates across DEX venues:
// triangular cycles on one venue and price gaps between venues.
package arbitrage

import (
	"context"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// Strategy produces candidates for a single scan.
type Strategy interface {
	Name() string
	Detect(ctx context.Context) ([]domain.Candidate, error)
}

// QuoteFunc quotes amount of in for out on a fixed venue.
type QuoteFunc func(ctx context.Context, in, out domain.TokenRef, amount float64) (float64, error)

// VenueQuoter is the quoting surface the strategies need from the venue
// registry.
type VenueQuoter interface {
	Quote(ctx context.Context, venue string, in, out domain.TokenRef, amount float64) (float64, error)
	QuoteAll(ctx context.Context, in, out domain.TokenRef) map[string]float64
	VenueNames() []string
}
