package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

const (
	archivePageSize = 1000
	jsonlType       = "application/x-ndjson"
)

// ArchiverConfig wires an Archiver. Audit may be nil.
type ArchiverConfig struct {
	Writer    domain.BlobWriter
	Reader    domain.BlobReader
	Decisions domain.DecisionStore
	Audit     domain.AuditStore
	// Payloads at or above this size go through the multipart uploader.
	MultipartThreshold int64
}

// Archiver moves decisions older than a cutoff into monthly JSONL objects at
// archive/decisions/YYYY-MM.jsonl, then deletes them from the store. An
// existing month object is extended, not replaced.
type Archiver struct {
	cfg ArchiverConfig
}

func NewArchiver(cfg ArchiverConfig) *Archiver {
	if cfg.MultipartThreshold <= 0 {
		cfg.MultipartThreshold = MinPartSize
	}
	return &Archiver{cfg: cfg}
}

// ArchiveDecisions archives every decision decided strictly before before and
// returns how many were archived.
func (a *Archiver) ArchiveDecisions(ctx context.Context, before time.Time) (int64, error) {
	// Until is inclusive; stay strictly before the cutoff to match DeleteBefore.
	until := before.Add(-time.Microsecond)

	byMonth := make(map[string][]domain.ExecutionDecision)
	var total int64
	for offset := 0; ; offset += archivePageSize {
		page, err := a.cfg.Decisions.List(ctx, domain.ListOpts{Until: &until, Limit: archivePageSize, Offset: offset})
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive decisions query: %w", err)
		}
		for _, d := range page {
			m := d.DecidedAt.UTC().Format("2006-01")
			byMonth[m] = append(byMonth[m], d)
		}
		total += int64(len(page))
		if len(page) < archivePageSize {
			break
		}
	}
	if total == 0 {
		return 0, nil
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	paths := make([]string, 0, len(months))
	for _, m := range months {
		path := ArchivePath(m)
		if err := a.appendMonth(ctx, path, byMonth[m]); err != nil {
			return 0, err
		}
		paths = append(paths, path)
	}

	deleted, err := a.cfg.Decisions.DeleteBefore(ctx, before)
	if err != nil {
		return total, fmt.Errorf("s3blob: archive decisions prune: %w", err)
	}

	if a.cfg.Audit != nil {
		if err := a.cfg.Audit.Log(ctx, "archive.decisions", map[string]any{
			"paths":   paths,
			"count":   total,
			"deleted": deleted,
			"before":  before.Format(time.RFC3339),
		}); err != nil {
			return total, fmt.Errorf("s3blob: archive decisions audit: %w", err)
		}
	}
	return total, nil
}

// appendMonth writes decisions after any existing content at path, oldest
// first.
func (a *Archiver) appendMonth(ctx context.Context, path string, ds []domain.ExecutionDecision) error {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].DecidedAt.Before(ds[j].DecidedAt) })

	var buf bytes.Buffer
	if a.cfg.Reader != nil {
		body, err := a.cfg.Reader.Get(ctx, path)
		switch {
		case errors.Is(err, domain.ErrNotFound):
		case err != nil:
			return fmt.Errorf("s3blob: archive read %s: %w", path, err)
		default:
			_, err = io.Copy(&buf, body)
			body.Close()
			if err != nil {
				return fmt.Errorf("s3blob: archive read %s: %w", path, err)
			}
		}
	}

	enc := json.NewEncoder(&buf)
	for _, d := range ds {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("s3blob: archive encode %s: %w", d.ID, err)
		}
	}

	var err error
	if int64(buf.Len()) >= a.cfg.MultipartThreshold {
		err = a.cfg.Writer.PutMultipart(ctx, path, &buf, MinPartSize)
	} else {
		err = a.cfg.Writer.Put(ctx, path, &buf, jsonlType)
	}
	if err != nil {
		return fmt.Errorf("s3blob: archive upload %s: %w", path, err)
	}
	return nil
}

// ArchivePath is the object key for a YYYY-MM month.
func ArchivePath(month string) string {
	return "archive/decisions/" + month + ".jsonl"
}

var _ domain.Archiver = (*Archiver)(nil)
