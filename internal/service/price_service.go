package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// Quoter is the slice of the venue registry the services need.
type Quoter interface {
	Quote(ctx context.Context, venue string, in, out domain.TokenRef, amount float64) (float64, error)
}

// PricePair is one configured pair to observe. Unset tokens are skipped.
type PricePair struct {
	In  domain.TokenRef
	Out domain.TokenRef
}

// PriceService observes the configured pairs on one venue, caches the quotes
// and publishes them on the prices channel.
type PriceService struct {
	quoter Quoter
	venue  string
	pairs  []PricePair
	cache  domain.PriceCache // optional
	bus    domain.SignalBus  // optional
	now    func() time.Time
	logger *slog.Logger
}

// NewPriceService creates a PriceService. cache and bus may be nil.
func NewPriceService(q Quoter, venue string, pairs []PricePair, cache domain.PriceCache, bus domain.SignalBus, logger *slog.Logger) *PriceService {
	return &PriceService{
		quoter: q,
		venue:  venue,
		pairs:  pairs,
		cache:  cache,
		bus:    bus,
		now:    time.Now,
		logger: logger.With(slog.String("component", "price_service")),
	}
}

// FetchPrices quotes one unit of every pair, forward and, when the forward
// quote succeeds, reverse.
func (s *PriceService) FetchPrices(ctx context.Context) []domain.PriceQuote {
	var quotes []domain.PriceQuote
	for _, p := range s.pairs {
		if !p.In.IsSet() || !p.Out.IsSet() {
			continue
		}
		fwd, ok := s.quote(ctx, p.In, p.Out)
		if !ok {
			continue
		}
		quotes = append(quotes, fwd)
		if rev, ok := s.quote(ctx, p.Out, p.In); ok {
			quotes = append(quotes, rev)
		}
	}

	if len(quotes) == 0 {
		s.logger.WarnContext(ctx, "no prices fetched", slog.String("venue", s.venue))
		return nil
	}
	for _, q := range quotes {
		s.observe(ctx, q)
	}
	return quotes
}

func (s *PriceService) quote(ctx context.Context, in, out domain.TokenRef) (domain.PriceQuote, bool) {
	amt, err := s.quoter.Quote(ctx, s.venue, in, out, 1.0)
	if err != nil {
		s.logger.DebugContext(ctx, "price quote failed",
			slog.String("pair", in.Symbol+"/"+out.Symbol),
			slog.String("failure", domain.FailureKind(err)),
		)
		return domain.PriceQuote{}, false
	}
	return domain.PriceQuote{
		Venue:     s.venue,
		TokenIn:   in,
		TokenOut:  out,
		AmountIn:  1.0,
		AmountOut: amt,
		QuotedAt:  s.now().UTC(),
	}, true
}

func (s *PriceService) observe(ctx context.Context, q domain.PriceQuote) {
	if s.cache != nil {
		if err := s.cache.SetQuote(ctx, q); err != nil {
			s.logger.WarnContext(ctx, "price cache write failed", slog.String("error", err.Error()))
		}
	}
	if s.bus == nil {
		return
	}
	evt, _ := json.Marshal(map[string]any{
		"event":     "price",
		"venue":     q.Venue,
		"pair":      q.TokenIn.Symbol + "/" + q.TokenOut.Symbol,
		"price":     q.Price(),
		"timestamp": q.QuotedAt.Format(time.RFC3339Nano),
	})
	if err := s.bus.Publish(ctx, domain.ChannelPrices, evt); err != nil {
		s.logger.WarnContext(ctx, "publish price failed", slog.String("error", err.Error()))
	}
}
