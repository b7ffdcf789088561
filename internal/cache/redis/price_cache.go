package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// PriceCache implements domain.PriceCache. Each quote is a hash at
// "quote:{venue}:{IN}/{OUT}" and every venue keeps a "prices:{venue}" hash of
// pair to unit price. Both expire after ttl.
type PriceCache struct {
	c   *Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache. ttl <= 0 disables expiry.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	return &PriceCache{c: c, ttl: ttl}
}

func pairField(in, out domain.TokenRef) string { return in.Symbol + "/" + out.Symbol }

func (pc *PriceCache) SetQuote(ctx context.Context, q domain.PriceQuote) error {
	pair := pairField(q.TokenIn, q.TokenOut)
	quoteKey := pc.c.key("quote", q.Venue, pair)
	pricesKey := pc.c.key("prices", q.Venue)

	_, err := pc.c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, quoteKey, map[string]any{
			"amount_in":  strconv.FormatFloat(q.AmountIn, 'f', -1, 64),
			"amount_out": strconv.FormatFloat(q.AmountOut, 'f', -1, 64),
			"ts":         strconv.FormatInt(q.QuotedAt.UnixNano(), 10),
		})
		p.HSet(ctx, pricesKey, pair, strconv.FormatFloat(q.Price(), 'f', -1, 64))
		if pc.ttl > 0 {
			p.Expire(ctx, quoteKey, pc.ttl)
			p.Expire(ctx, pricesKey, pc.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: set quote %s %s: %w", q.Venue, pair, err)
	}
	return nil
}

// GetQuote returns the cached quote or domain.ErrNotFound.
func (pc *PriceCache) GetQuote(ctx context.Context, venue string, in, out domain.TokenRef) (domain.PriceQuote, error) {
	pair := pairField(in, out)
	vals, err := pc.c.rdb.HGetAll(ctx, pc.c.key("quote", venue, pair)).Result()
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: get quote %s %s: %w", venue, pair, err)
	}
	if len(vals) == 0 {
		return domain.PriceQuote{}, domain.ErrNotFound
	}

	q := domain.PriceQuote{Venue: venue, TokenIn: in, TokenOut: out}
	if q.AmountIn, err = strconv.ParseFloat(vals["amount_in"], 64); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: parse amount_in %s: %w", pair, err)
	}
	if q.AmountOut, err = strconv.ParseFloat(vals["amount_out"], 64); err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: parse amount_out %s: %w", pair, err)
	}
	ts, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("redis: parse ts %s: %w", pair, err)
	}
	q.QuotedAt = time.Unix(0, ts).UTC()
	return q, nil
}

// VenuePrices returns pair to price for venue. Unparseable fields are skipped.
func (pc *PriceCache) VenuePrices(ctx context.Context, venue string) (map[string]float64, error) {
	vals, err := pc.c.rdb.HGetAll(ctx, pc.c.key("prices", venue)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: venue prices %s: %w", venue, err)
	}
	out := make(map[string]float64, len(vals))
	for pair, s := range vals {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		out[pair] = p
	}
	return out, nil
}

var _ domain.PriceCache = (*PriceCache)(nil)
