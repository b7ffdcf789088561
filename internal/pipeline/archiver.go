// Package pipeline runs background maintenance jobs next to the scan loop.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// ArchiveJob periodically moves decisions past the retention window to cold
// storage.
type ArchiveJob struct {
	archiver  domain.Archiver
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewArchiveJob(archiver domain.Archiver, retentionDays int, logger *slog.Logger) *ArchiveJob {
	return &ArchiveJob{
		archiver:  archiver,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "archive_job")),
	}
}

// Cutoff is the instant before which decisions are archived.
func (j *ArchiveJob) Cutoff() time.Time {
	return j.now().UTC().Add(-j.retention)
}

// Run performs one archive pass.
func (j *ArchiveJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.Cutoff()
	n, err := j.archiver.ArchiveDecisions(ctx, cutoff)
	if err != nil {
		return n, fmt.Errorf("pipeline: archive decisions before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.logger.InfoContext(ctx, "archive run complete",
		slog.Time("cutoff", cutoff),
		slog.Int64("archived", n),
	)
	return n, nil
}

// RunEvery runs immediately and then every interval until ctx is done. A
// failed pass is logged and retried on the next tick.
func (j *ArchiveJob) RunEvery(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
			j.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
