package arbitrage

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Detector runs the enabled strategies for one scan.
type Detector struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewDetector creates a detector over strategies. Results are merged in the
// order the strategies are given.
func NewDetector(strategies []Strategy, logger *slog.Logger) *Detector {
	return &Detector{
		strategies: strategies,
		logger:     logger.With(slog.String("component", "arb_detector")),
	}
}

// Strategies returns the names of the enabled strategies.
func (d *Detector) Strategies() []string {
	names := make([]string, len(d.strategies))
	for i, s := range d.strategies {
		names[i] = s.Name()
	}
	return names
}

// Detect runs every strategy concurrently and returns the merged candidates.
// A strategy that fails or panics is logged and contributes nothing.
func (d *Detector) Detect(ctx context.Context) []domain.Candidate {
	results := make([][]domain.Candidate, len(d.strategies))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range d.strategies {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					d.logger.ErrorContext(gctx, "strategy panicked",
						slog.String("strategy", s.Name()),
						slog.Any("panic", r),
					)
				}
			}()
			cands, err := s.Detect(gctx)
			if err != nil {
				d.logger.WarnContext(gctx, "strategy failed",
					slog.String("strategy", s.Name()),
					slog.String("error", err.Error()),
				)
			}
			results[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.Candidate
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}
