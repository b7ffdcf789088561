package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

const decisionColumns = `id, candidate_id, kind, venue, route, buy_venue, sell_venue,
	buy_price, sell_price, input_amount, output_amount, profit_pct, profitable, detected_at,
	outcome, reason, gas_cost, gas_fallback, threshold_pct, error, decided_at`

// DecisionStore implements domain.DecisionStore.
type DecisionStore struct {
	pool *pgxpool.Pool
}

func NewDecisionStore(pool *pgxpool.Pool) *DecisionStore {
	return &DecisionStore{pool: pool}
}

// Insert stores a decision. Re-inserting the same id is a no-op.
func (s *DecisionStore) Insert(ctx context.Context, d domain.ExecutionDecision) error {
	c := d.Candidate
	_, err := s.pool.Exec(ctx, `
		INSERT INTO execution_decisions (`+decisionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO NOTHING`,
		d.ID, c.ID, string(c.Kind), c.Venue, c.Route, c.BuyVenue, c.SellVenue,
		c.BuyPrice, c.SellPrice, c.Input, c.Output, c.ProfitPct, c.Profitable, c.DetectedAt,
		string(d.Outcome), d.Reason, d.GasCost, d.GasFallback, d.ThresholdPct, d.Error, d.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert decision %s: %w", d.ID, err)
	}
	return nil
}

func (s *DecisionStore) GetByID(ctx context.Context, id string) (domain.ExecutionDecision, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+decisionColumns+` FROM execution_decisions WHERE id = $1`, id)
	d, err := scanDecision(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ExecutionDecision{}, domain.ErrNotFound
		}
		return domain.ExecutionDecision{}, fmt.Errorf("postgres: get decision %s: %w", id, err)
	}
	return d, nil
}

// List returns decisions newest first.
func (s *DecisionStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.ExecutionDecision, error) {
	query, args := listQuery(`SELECT `+decisionColumns+` FROM execution_decisions WHERE TRUE`, "decided_at", opts)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list decisions: %w", err)
	}
	defer rows.Close()

	var out []domain.ExecutionDecision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan decision: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: decision rows: %w", err)
	}
	return out, nil
}

func (s *DecisionStore) CountByOutcome(ctx context.Context) (map[domain.Outcome]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT outcome, COUNT(*) FROM execution_decisions GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("postgres: count decisions: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Outcome]int64)
	for rows.Next() {
		var (
			outcome string
			n       int64
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("postgres: scan count: %w", err)
		}
		counts[domain.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

// SumSimulatedProfit sums the profit fraction of would-execute decisions
// since the given time.
func (s *DecisionStore) SumSimulatedProfit(ctx context.Context, since time.Time) (float64, error) {
	var sum float64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(profit_pct) / 100.0, 0)
		FROM execution_decisions
		WHERE outcome = $1 AND decided_at >= $2`,
		string(domain.OutcomeWouldExecute), since,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("postgres: sum simulated profit: %w", err)
	}
	return sum, nil
}

// DeleteBefore removes decisions older than before and returns the count.
func (s *DecisionStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM execution_decisions WHERE decided_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete decisions before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func scanDecision(row pgx.Row) (domain.ExecutionDecision, error) {
	var (
		d             domain.ExecutionDecision
		kind, outcome string
	)
	c := &d.Candidate
	err := row.Scan(&d.ID, &c.ID, &kind, &c.Venue, &c.Route, &c.BuyVenue, &c.SellVenue,
		&c.BuyPrice, &c.SellPrice, &c.Input, &c.Output, &c.ProfitPct, &c.Profitable, &c.DetectedAt,
		&outcome, &d.Reason, &d.GasCost, &d.GasFallback, &d.ThresholdPct, &d.Error, &d.DecidedAt,
	)
	c.Kind = domain.CandidateKind(kind)
	d.Outcome = domain.Outcome(outcome)
	return d, err
}
