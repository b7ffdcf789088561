package executor

import (
	"fmt"
	"sync"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// Journal durably records decisions before the ledger accepts them.
type Journal interface {
	Append(d domain.ExecutionDecision) error
}

// Ledger is the append-only record of would-execute decisions and the running
// simulated profit. It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	entries []domain.ExecutionDecision
	profit  float64
	journal Journal
}

// NewLedger creates a ledger. j may be nil.
func NewLedger(j Journal) *Ledger {
	return &Ledger{journal: j}
}

// Record journals d, then appends it and adds its profit contribution. If the
// journal write fails the ledger is left unchanged.
func (l *Ledger) Record(d domain.ExecutionDecision) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.journal != nil {
		if err := l.journal.Append(d); err != nil {
			return fmt.Errorf("executor: journal decision %s: %w", d.ID, err)
		}
	}
	l.entries = append(l.entries, d)
	l.profit += d.ProfitContribution()
	return nil
}

// Restore loads previously journaled decisions without re-journaling them.
func (l *Ledger) Restore(entries []domain.ExecutionDecision) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range entries {
		l.entries = append(l.entries, d)
		l.profit += d.ProfitContribution()
	}
}

// Entries returns a copy of the recorded decisions, oldest first.
func (l *Ledger) Entries() []domain.ExecutionDecision {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ExecutionDecision(nil), l.entries...)
}

// Recent returns up to n of the newest decisions, newest first.
func (l *Ledger) Recent(n int) []domain.ExecutionDecision {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]domain.ExecutionDecision, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// SimulatedProfit is the sum of profit fractions of every recorded decision.
func (l *Ledger) SimulatedProfit() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.profit
}
