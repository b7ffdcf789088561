package domain

import (
	"context"
	"time"
)

// Bus channels.
const (
	ChannelPrices        = "prices"
	ChannelOpportunities = "opportunities"
	ChannelDecisions     = "decisions"
	ChannelStats         = "stats"
	StreamDecisions      = "stream:decisions"
)

// PriceCache keeps the latest observed price per venue and pair.
type PriceCache interface {
	SetQuote(ctx context.Context, q PriceQuote) error
	GetQuote(ctx context.Context, venue string, in, out TokenRef) (PriceQuote, error)
	VenuePrices(ctx context.Context, venue string) (map[string]float64, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage represents a single entry from a Redis stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
