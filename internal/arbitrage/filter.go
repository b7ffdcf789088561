package arbitrage

import (
	"sort"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// Partition splits candidates into profitable ones and the rest, preserving
// order within each group.
func Partition(cands []domain.Candidate) (profitable, logged []domain.Candidate) {
	for _, c := range cands {
		if c.Profitable() {
			profitable = append(profitable, c)
		} else {
			logged = append(logged, c)
		}
	}
	return profitable, logged
}

// Rank returns a copy of cands sorted by profit, highest first. Ties keep
// their input order.
func Rank(cands []domain.Candidate) []domain.Candidate {
	out := append([]domain.Candidate(nil), cands...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProfitPct() > out[j].ProfitPct()
	})
	return out
}

// Top returns the first n candidates. n <= 0 means all.
func Top(cands []domain.Candidate, n int) []domain.Candidate {
	if n <= 0 || n >= len(cands) {
		return cands
	}
	return cands[:n]
}
