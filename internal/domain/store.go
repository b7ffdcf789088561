package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit   int
	Offset  int
	Outcome Outcome
	Since   *time.Time
	Until   *time.Time
}

// DecisionStore persists execution decisions.
type DecisionStore interface {
	Insert(ctx context.Context, d ExecutionDecision) error
	GetByID(ctx context.Context, id string) (ExecutionDecision, error)
	List(ctx context.Context, opts ListOpts) ([]ExecutionDecision, error)
	CountByOutcome(ctx context.Context) (map[Outcome]int64, error)
	SumSimulatedProfit(ctx context.Context, since time.Time) (float64, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
