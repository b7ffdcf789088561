package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/google/uuid"
)

// FindCrossVenue compares the price of one pair on every unordered pair of
// venues. venues fixes the comparison order; venues without a price are
// skipped. The cheaper venue is the buy side.
func FindCrossVenue(prices map[string]float64, venues []string, in, out domain.TokenRef) []domain.Candidate {
	var res []domain.Candidate
	for i := 0; i < len(venues); i++ {
		pa, ok := prices[venues[i]]
		if !ok || pa <= 0 {
			continue
		}
		for j := i + 1; j < len(venues); j++ {
			pb, ok := prices[venues[j]]
			if !ok || pb <= 0 || pa == pb {
				continue
			}

			buy, sell, low, high := venues[i], venues[j], pa, pb
			if pa > pb {
				buy, sell, low, high = venues[j], venues[i], pb, pa
			}
			profit := high/low - 1
			if !domain.ShouldEmit(profit * 100) {
				continue
			}
			res = append(res, &domain.CrossVenueCandidate{
				ID:         uuid.NewString(),
				TokenIn:    in,
				TokenOut:   out,
				BuyVenue:   buy,
				SellVenue:  sell,
				BuyPrice:   low,
				SellPrice:  high,
				Profit:     profit,
				DetectedAt: time.Now().UTC(),
			})
		}
	}
	return res
}

// CrossVenue quotes one pair on every venue and runs FindCrossVenue.
type CrossVenue struct {
	quoter VenueQuoter
	in     domain.TokenRef
	out    domain.TokenRef
	logger *slog.Logger
}

// NewCrossVenue creates the cross-venue strategy for the pair in/out.
func NewCrossVenue(quoter VenueQuoter, in, out domain.TokenRef, logger *slog.Logger) *CrossVenue {
	return &CrossVenue{
		quoter: quoter,
		in:     in,
		out:    out,
		logger: logger.With(slog.String("component", "cross_venue")),
	}
}

func (c *CrossVenue) Name() string { return "cross_venue" }

func (c *CrossVenue) Detect(ctx context.Context) ([]domain.Candidate, error) {
	if !c.in.IsSet() || !c.out.IsSet() {
		c.logger.DebugContext(ctx, "cross pair not deployed",
			slog.String("pair", c.in.String()+"/"+c.out.String()))
		return nil, nil
	}
	prices := c.quoter.QuoteAll(ctx, c.in, c.out)
	if len(prices) < 2 {
		return nil, nil
	}
	return FindCrossVenue(prices, c.quoter.VenueNames(), c.in, c.out), nil
}
