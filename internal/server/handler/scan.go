package handler

import (
	"net/http"

	"github.com/alanyoungcy/privpoolbot/internal/domain"
)

// ScanSource exposes the counters and last report of the scan loop.
type ScanSource interface {
	Stats() domain.ScanStats
	LastReport() domain.ScanReport
}

// ScanHandler serves scan statistics and the latest opportunities.
type ScanHandler struct {
	source ScanSource
}

// NewScanHandler creates a ScanHandler.
func NewScanHandler(source ScanSource) *ScanHandler {
	return &ScanHandler{source: source}
}

// GetStats returns the process-lifetime scan counters.
// GET /api/stats
func (h *ScanHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.source.Stats())
}

// GetOpportunities returns the profitable candidates of the last completed
// scan, best first.
// GET /api/opportunities
func (h *ScanHandler) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	report := h.source.LastReport()
	opps := report.Profitable
	if opps == nil {
		opps = []domain.CandidateRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": opps,
		"candidates":    report.Candidates,
		"scanned_at":    report.CompletedAt,
	})
}
