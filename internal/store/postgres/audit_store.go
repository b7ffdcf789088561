package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

const auditColumns = `id, event, detail, created_at`

// AuditStore is the append-only audit_log table.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Log records one event. A nil detail is stored as an empty object.
func (s *AuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	if detail == nil {
		detail = map[string]any{}
	}
	body, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("postgres: encode audit %s: %w", event, err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO audit_log (event, detail) VALUES ($1, $2::jsonb)`, event, string(body))
	if err != nil {
		return fmt.Errorf("postgres: insert audit %s: %w", event, err)
	}
	return nil
}

// List pages through the log, newest first. Outcome filtering does not apply
// to audit rows.
func (s *AuditStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	opts.Outcome = ""
	query, args := listQuery(`SELECT `+auditColumns+` FROM audit_log WHERE TRUE`, "created_at", opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query audit log: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("postgres: collect audit log: %w", err)
	}
	return entries, nil
}

func scanAuditEntry(row pgx.CollectableRow) (domain.AuditEntry, error) {
	var (
		e    domain.AuditEntry
		body []byte
	)
	if err := row.Scan(&e.ID, &e.Event, &body, &e.CreatedAt); err != nil {
		return e, err
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &e.Detail); err != nil {
			return e, fmt.Errorf("decode detail of audit %d: %w", e.ID, err)
		}
	}
	return e, nil
}
