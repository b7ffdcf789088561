package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"github.com/google/uuid"
)

// startAmount is the input of every triangular path, in whole units of the
// first token.
const startAmount = 1.0

// FindTriangular walks every ordered triple of distinct set tokens
// A->B->C->A through quote and returns the cycles whose profit clears the
// emit threshold. A failed leg abandons only its own path.
func FindTriangular(ctx context.Context, venue string, quote QuoteFunc, tokens []domain.TokenRef, logger *slog.Logger) []domain.Candidate {
	set := domain.SetTokens(tokens)
	if len(set) < 3 {
		return nil
	}

	var out []domain.Candidate
	for i := range set {
		for j := range set {
			if j == i {
				continue
			}
			for k := range set {
				if k == i || k == j {
					continue
				}
				if ctx.Err() != nil {
					return out
				}
				if c := evalCycle(ctx, venue, quote, set[i], set[j], set[k], logger); c != nil {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

func evalCycle(ctx context.Context, venue string, quote QuoteFunc, a, b, c domain.TokenRef, logger *slog.Logger) *domain.TriangularCandidate {
	hops := [][2]domain.TokenRef{{a, b}, {b, c}, {c, a}}
	legs := make([]domain.LegQuote, 0, len(hops))

	amount := startAmount
	for _, hop := range hops {
		got, err := quote(ctx, hop[0], hop[1], amount)
		if err != nil {
			logger.DebugContext(ctx, "triangular leg failed",
				slog.String("venue", venue),
				slog.String("path", a.String()+"->"+b.String()+"->"+c.String()),
				slog.String("leg", hop[0].String()+"->"+hop[1].String()),
				slog.String("failure", domain.FailureKind(err)),
			)
			return nil
		}
		legs = append(legs, domain.LegQuote{TokenIn: hop[0], TokenOut: hop[1], AmountIn: amount, AmountOut: got})
		amount = got
	}

	profit := amount/startAmount - 1
	if !domain.ShouldEmit(profit * 100) {
		return nil
	}
	return &domain.TriangularCandidate{
		ID:           uuid.NewString(),
		Venue:        venue,
		Path:         []domain.TokenRef{a, b, c, a},
		Legs:         legs,
		InputAmount:  startAmount,
		OutputAmount: amount,
		Profit:       profit,
		DetectedAt:   time.Now().UTC(),
	}
}

// Triangular runs FindTriangular on each configured venue.
type Triangular struct {
	quoter    VenueQuoter
	venues    []string
	tokens    []domain.TokenRef
	maxTokens int
	logger    *slog.Logger
}

// NewTriangular creates the triangular strategy. An empty venues list means
// every venue the quoter knows. Only the first maxTokens set tokens are used.
func NewTriangular(quoter VenueQuoter, venues []string, tokens []domain.TokenRef, maxTokens int, logger *slog.Logger) *Triangular {
	return &Triangular{
		quoter:    quoter,
		venues:    venues,
		tokens:    tokens,
		maxTokens: maxTokens,
		logger:    logger.With(slog.String("component", "triangular")),
	}
}

func (t *Triangular) Name() string { return "triangular" }

// Tokens returns the tokens the search runs over.
func (t *Triangular) Tokens() []domain.TokenRef {
	set := domain.SetTokens(t.tokens)
	if t.maxTokens > 0 && len(set) > t.maxTokens {
		set = set[:t.maxTokens]
	}
	return set
}

func (t *Triangular) Detect(ctx context.Context) ([]domain.Candidate, error) {
	venues := t.venues
	if len(venues) == 0 {
		venues = t.quoter.VenueNames()
	}
	tokens := t.Tokens()
	if len(tokens) < 3 {
		t.logger.DebugContext(ctx, "not enough deployed tokens for triangular search", slog.Int("tokens", len(tokens)))
		return nil, nil
	}

	var out []domain.Candidate
	for _, v := range venues {
		quote := func(ctx context.Context, in, o domain.TokenRef, amount float64) (float64, error) {
			return t.quoter.Quote(ctx, v, in, o, amount)
		}
		out = append(out, FindTriangular(ctx, v, quote, tokens, t.logger)...)
	}
	return out, ctx.Err()
}
