package domain

import "time"

// Outcome is the terminal state of an execution decision.
type Outcome string

const (
	OutcomeSimulatedNoKey        Outcome = "simulated_no_key"
	OutcomeSkippedBelowThreshold Outcome = "skipped_below_threshold"
	OutcomeWouldExecute          Outcome = "would_execute"
	OutcomeFailed                Outcome = "failed"
)

// ExecutionDecision records what the gate decided for one candidate.
type ExecutionDecision struct {
	ID           string          `json:"id"`
	Candidate    CandidateRecord `json:"candidate"`
	Outcome      Outcome         `json:"outcome"`
	Reason       string          `json:"reason,omitempty"`
	GasCost      float64         `json:"gas_cost"`
	GasFallback  bool            `json:"gas_fallback,omitempty"`
	ThresholdPct float64         `json:"threshold_pct,omitempty"`
	Error        string          `json:"error,omitempty"`
	DecidedAt    time.Time       `json:"decided_at"`
}

// ProfitContribution is the amount a decision adds to the simulated profit
// accumulator, as a fraction.
func (d ExecutionDecision) ProfitContribution() float64 {
	if d.Outcome != OutcomeWouldExecute {
		return 0
	}
	return d.Candidate.ProfitPct / 100
}

// ScanStats are the process-lifetime counters of the scan loop.
type ScanStats struct {
	Scans              int64     `json:"scans"`
	OpportunitiesFound int64     `json:"opportunities_found"`
	WouldExecute       int64     `json:"would_execute"`
	Failures           int64     `json:"failures"`
	SkippedScans       int64     `json:"skipped_scans"`
	SimulatedProfit    float64   `json:"simulated_profit"`
	StartedAt          time.Time `json:"started_at"`
	LastScanAt         time.Time `json:"last_scan_at,omitempty"`
}

// ScanReport summarises one completed scan. Profitable holds the top-ranked
// prefix only; ProfitableCount and Decisions cover every profitable candidate.
type ScanReport struct {
	Prices          int                 `json:"prices"`
	Candidates      int                 `json:"candidates"`
	ProfitableCount int                 `json:"profitable_count"`
	Profitable      []CandidateRecord   `json:"profitable"`
	Decisions       []ExecutionDecision `json:"decisions"`
	Skipped         bool                `json:"skipped,omitempty"`
	StartedAt       time.Time           `json:"started_at"`
	CompletedAt     time.Time           `json:"completed_at"`
}

// OpportunityCount is the number of profitable candidates the scan found.
func (r ScanReport) OpportunityCount() int {
	if r.ProfitableCount > len(r.Profitable) {
		return r.ProfitableCount
	}
	return len(r.Profitable)
}

// ProfitDelta sums the accumulator contribution of the report's decisions.
func (r ScanReport) ProfitDelta() float64 {
	var sum float64
	for _, d := range r.Decisions {
		sum += d.ProfitContribution()
	}
	return sum
}

// WouldExecuteCount counts the would-execute decisions in the report.
func (r ScanReport) WouldExecuteCount() int {
	n := 0
	for _, d := range r.Decisions {
		if d.Outcome == OutcomeWouldExecute {
			n++
		}
	}
	return n
}
