// Package wal journals would-execute decisions to a segmented write-ahead log
// so the simulated ledger survives restarts.
package wal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/vadiminshakov/gowal"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

const decisionKey = "decision"

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("wal: journal closed")

// Config locates and sizes the log.
type Config struct {
	Dir              string
	SegmentThreshold int
	MaxSegments      int
}

// Journal is a decision log on top of gowal. It implements executor.Journal.
type Journal struct {
	mu     sync.Mutex
	wal    *gowal.Wal
	closed bool
}

// Open opens or creates the log in cfg.Dir. Writes are fsynced.
func Open(cfg Config) (*Journal, error) {
	if cfg.SegmentThreshold <= 0 {
		cfg.SegmentThreshold = 1000
	}
	if cfg.MaxSegments <= 0 {
		cfg.MaxSegments = 100
	}
	w, err := gowal.NewWAL(gowal.Config{
		Dir:              cfg.Dir,
		Prefix:           "seg_",
		SegmentThreshold: cfg.SegmentThreshold,
		MaxSegments:      cfg.MaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", cfg.Dir, err)
	}
	return &Journal{wal: w}, nil
}

// Append writes d as the next entry.
func (j *Journal) Append(d domain.ExecutionDecision) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("wal: marshal decision %s: %w", d.ID, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if err := j.wal.Write(j.wal.CurrentIndex()+1, decisionKey, b); err != nil {
		return fmt.Errorf("wal: write decision %s: %w", d.ID, err)
	}
	return nil
}

// Replay returns every journaled decision in write order.
func (j *Journal) Replay() ([]domain.ExecutionDecision, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ErrClosed
	}

	var out []domain.ExecutionDecision
	n := 0
	for m := range j.wal.Iterator() {
		n++
		if m.Key != decisionKey {
			continue
		}
		var d domain.ExecutionDecision
		if err := json.Unmarshal(m.Value, &d); err != nil {
			return nil, fmt.Errorf("wal: decode entry %d: %w", n, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Index is the index of the last written entry.
func (j *Journal) Index() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.wal.CurrentIndex()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if err := j.wal.Close(); err != nil {
		return fmt.Errorf("wal: close: %w", err)
	}
	return nil
}
